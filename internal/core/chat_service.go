package core

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"smooze.app/wingman/internal/store"
)

var ErrConversationNotFound = errors.New("conversation not found")

// TurnJournal stores and lists turn diagnostics.
type TurnJournal interface {
	TurnRecorder
	GetTurnsByConversationID(conversationID string, limit int) ([]store.TurnRecord, error)
}

// ChatService keeps the live conversations of this process.
type ChatService struct {
	pipeline *Pipeline
	journal  TurnJournal // nil when diagnostics are disabled

	mu            sync.RWMutex
	conversations map[string]*Conversation
}

func NewChatService(pipeline *Pipeline, journal TurnJournal) *ChatService {
	return &ChatService{
		pipeline:      pipeline,
		journal:       journal,
		conversations: make(map[string]*Conversation),
	}
}

func (s *ChatService) CreateConversation() *Conversation {
	var recorder TurnRecorder
	if s.journal != nil {
		recorder = s.journal
	}
	conv := NewConversation(s.pipeline, recorder)

	s.mu.Lock()
	s.conversations[conv.ID] = conv
	s.mu.Unlock()

	log.Printf("Created conversation %s", conv.ID)
	return conv
}

func (s *ChatService) GetConversation(id string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

// CloseConversation tears down and forgets the conversation.
func (s *ChatService) CloseConversation(id string) error {
	s.mu.Lock()
	conv, ok := s.conversations[id]
	delete(s.conversations, id)
	s.mu.Unlock()

	if !ok {
		return ErrConversationNotFound
	}
	conv.Close()
	log.Printf("Closed conversation %s", id)
	return nil
}

func (s *ChatService) GetTurns(conversationID string, limit int) ([]store.TurnRecord, error) {
	if _, err := s.GetConversation(conversationID); err != nil {
		return nil, err
	}
	if s.journal == nil {
		return []store.TurnRecord{}, nil
	}
	records, err := s.journal.GetTurnsByConversationID(conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load turns: %w", err)
	}
	if records == nil {
		records = []store.TurnRecord{}
	}
	return records, nil
}

// Shutdown closes every live conversation.
func (s *ChatService) Shutdown() {
	s.mu.Lock()
	convs := s.conversations
	s.conversations = make(map[string]*Conversation)
	s.mu.Unlock()

	for _, conv := range convs {
		conv.Close()
	}
}
