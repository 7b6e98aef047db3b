package service

import (
	"context"
	"encoding/json"
	"regexp"
	"time"

	"ai-salesbot-be/internal/dto"
	"ai-salesbot-be/internal/pkg/logger"
	"ai-salesbot-be/internal/repository/file"
	"ai-salesbot-be/internal/repository/memory"
	"ai-salesbot-be/pkg/funnel"
	"ai-salesbot-be/pkg/funnel/prompt"
	"ai-salesbot-be/pkg/llm"
	"ai-salesbot-be/pkg/search"
	"ai-salesbot-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// ApologyMessage is returned verbatim when the completion provider fails;
// the session is left exactly as it was.
const ApologyMessage = "Sorry, I encountered an error. Please try again."

const recommendationLimit = 5

// IConversationService orchestrates one chat message end to end.
type IConversationService interface {
	ProcessMessage(ctx context.Context, message, sessionID string) *dto.ChatResponse
	SessionInfo(sessionID string) (*dto.SessionInfoResponse, bool)
	ActiveSessions() int
}

type conversationService struct {
	engine       *search.Engine
	llmProvider  llm.Provider
	sessionRepo  *memory.SessionRepository
	snapshotRepo *file.SnapshotRepository
	publisher    message.Publisher
	topic        string
	timeout      time.Duration
	logger       logger.ILogger
}

func NewConversationService(
	engine *search.Engine,
	llmProvider llm.Provider,
	sessionRepo *memory.SessionRepository,
	snapshotRepo *file.SnapshotRepository,
	publisher message.Publisher,
	topic string,
	timeout time.Duration,
	log logger.ILogger,
) IConversationService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &conversationService{
		engine:       engine,
		llmProvider:  llmProvider,
		sessionRepo:  sessionRepo,
		snapshotRepo: snapshotRepo,
		publisher:    publisher,
		topic:        topic,
		timeout:      timeout,
		logger:       log,
	}
}

// Product links look like [Product Name](https://...); their presence in a
// reply is what qualifies recommendations for the conversation log.
var productLinkPattern = regexp.MustCompile(`\[[^\]]+\]\(https?://[^)\s]+\)`)

// ProcessMessage runs the full message sequence for one session: lookup or
// create, conditional catalog search, prompt build, completion call, state
// transition, turn append, snapshot publish. The whole sequence runs under
// the session's lock so concurrent messages for the same id serialize.
func (s *conversationService) ProcessMessage(ctx context.Context, userMessage, sessionID string) *dto.ChatResponse {
	mu := s.sessionRepo.Lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	sess := s.lookupOrCreate(sessionID)

	// Only the handset stage consults the live catalog; the upsell stages
	// work from their fixed reference datasets.
	recommendations := []store.Recommendation{}
	if sess.State == store.StateInitial {
		for _, r := range s.engine.Search(ctx, userMessage, recommendationLimit) {
			recommendations = append(recommendations, r.Product.Summary())
		}
	}

	promptText := prompt.NewBuilder(
		sess.State,
		sess.RecentTurns(prompt.HistoryWindow),
		userMessage,
		prompt.ContextFor(sess.State, recommendations),
	).WithPreferences(sess.Preferences).Build()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	rawReply, err := s.llmProvider.Generate(callCtx, promptText, llm.WithTemperature(0.7))
	if err != nil {
		s.logger.Error("conversation", "completion provider failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return &dto.ChatResponse{Response: ApologyMessage, Recommendations: recommendations}
	}

	nextState := funnel.Next(sess.State, rawReply)
	if nextState != sess.State {
		s.logger.Info("conversation", "funnel transition", map[string]interface{}{
			"session_id": sessionID,
			"from":       string(sess.State),
			"to":         string(nextState),
		})
	}
	sess.State = nextState

	reply := funnel.StripTags(rawReply)

	// Recommendations enter the log only when the reply actually links a
	// product; they are still returned to the caller either way.
	var loggedRecommendations []store.Recommendation
	if len(recommendations) > 0 && productLinkPattern.MatchString(reply) {
		loggedRecommendations = recommendations
	}
	sess.AddTurn(store.RoleUser, userMessage, nil)
	sess.AddTurn(store.RoleAssistant, reply, loggedRecommendations)

	s.sessionRepo.Save(sess)
	s.publishSnapshot(sess)

	return &dto.ChatResponse{Response: reply, Recommendations: recommendations}
}

func (s *conversationService) lookupOrCreate(sessionID string) *store.Session {
	if sess, found := s.sessionRepo.Get(sessionID); found {
		return sess
	}
	// A session evicted from the cache is still recoverable from its
	// snapshot; every completed turn survives the round trip.
	snap, err := s.snapshotRepo.Load(sessionID)
	if err != nil {
		s.logger.Warn("conversation", "snapshot load failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
	if snap != nil {
		s.sessionRepo.Save(snap)
		return snap
	}
	s.logger.Info("conversation", "creating new session", map[string]interface{}{
		"session_id": sessionID,
	})
	sess := store.NewSession(sessionID)
	s.sessionRepo.Save(sess)
	return sess
}

// publishSnapshot hands the full session snapshot to the persistence
// consumer. Failure to publish is logged and never blocks the response;
// the in-memory session stays authoritative.
func (s *conversationService) publishSnapshot(sess *store.Session) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		s.logger.Error("conversation", "snapshot marshal failed", map[string]interface{}{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
		return
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	if err := s.publisher.Publish(s.topic, msg); err != nil {
		s.logger.Error("conversation", "snapshot publish failed", map[string]interface{}{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
	}
}

// SessionInfo reads under the same per-session lock ProcessMessage writes
// under, and copies the fields out before releasing it.
func (s *conversationService) SessionInfo(sessionID string) (*dto.SessionInfoResponse, bool) {
	mu := s.sessionRepo.Lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	sess, found := s.sessionRepo.Get(sessionID)
	if !found {
		snap, err := s.snapshotRepo.Load(sessionID)
		if err != nil || snap == nil {
			return nil, false
		}
		sess = snap
	}
	return &dto.SessionInfoResponse{
		SessionID:   sess.ID,
		CreatedAt:   sess.CreatedAt,
		State:       sess.State,
		Turns:       len(sess.Turns),
		Preferences: sess.Preferences,
	}, true
}

func (s *conversationService) ActiveSessions() int {
	return s.sessionRepo.Count()
}
