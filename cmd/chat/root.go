package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"smooze.app/wingman/internal/config"
	"smooze.app/wingman/internal/core"
	"smooze.app/wingman/internal/store"
	"smooze.app/wingman/internal/ui"
)

var (
	providerFlag string
	widthFlag    int
	noColorFlag  bool
	verboseFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "smooze-chat",
	Short: "Chat with Smooze, your AI wingman, in the terminal",
	Long: `smooze-chat runs a single in-memory conversation against the configured
model provider. Type a message and press Enter; type /quit to leave.

Configuration comes from .env and the environment (LLM_PROVIDER, GEMINI_API_KEY, ...).`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runChat,
}

func init() {
	rootCmd.Flags().StringVarP(&providerFlag, "provider", "p", "", "override LLM_PROVIDER (gemini, openai, mock)")
	rootCmd.Flags().IntVarP(&widthFlag, "width", "w", 0, "bubble area width in columns (default: terminal width)")
	rootCmd.Flags().BoolVar(&noColorFlag, "no-color", false, "disable ANSI colors")
	rootCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "print diagnostic logs to stderr")
}

func runChat(cmd *cobra.Command, args []string) error {
	if verboseFlag {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetOutput(io.Discard)
	}

	config.LoadDotEnv()
	cfg, err := config.Parse()
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if providerFlag != "" {
		cfg.LLMProvider = config.Provider(providerFlag)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	completer, err := core.NewCompleter(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize %s completer: %w", cfg.LLMProvider, err)
	}
	defer core.CloseCompleter(completer)

	conv := core.NewConversation(core.NewPipeline(completer, cfg.Debug()), nil)
	defer conv.Close()

	out := cmd.OutOrStdout()
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	renderer := ui.TerminalRenderer{
		Width: terminalWidth(isTTY),
		Theme: ui.DarkTheme(),
		Color: isTTY && !noColorFlag,
	}

	if err := renderer.Write(out, ui.Render(conv.Messages(), renderer.Theme)); err != nil {
		return err
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Fprint(out, "> ")
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return nil
			}
			line = l
		}

		if strings.TrimSpace(line) == "/quit" {
			return nil
		}

		turn, err := conv.Submit(ctx, line)
		if errors.Is(err, core.ErrEmptyMessage) {
			continue
		}
		if err != nil {
			return err
		}
		printMessage(out, renderer, turn.UserMessage)

		fmt.Fprintln(out, " Smooze is typing...")
		res, err := turn.Wait(ctx)
		if err != nil {
			fmt.Fprintln(out)
			return nil
		}
		if res.BotMessage != nil {
			printMessage(out, renderer, *res.BotMessage)
		}
	}
}

func printMessage(w io.Writer, r ui.TerminalRenderer, m store.Message) {
	bubbles := ui.Render([]store.Message{m}, r.Theme)
	io.WriteString(w, r.RenderBubble(bubbles[0]))
}

func terminalWidth(isTTY bool) int {
	if widthFlag > 0 {
		return widthFlag
	}
	if isTTY {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			return w
		}
	}
	return 80
}
