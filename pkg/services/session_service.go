package services

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"tourism-dashboard-api/pkg/models"

	"github.com/google/uuid"
)

// Session は1つの独立したインメモリテーブルと、その生成条件を保持します。
// Records は作成後に変更しないため、ロックなしで読み取れます。
type Session struct {
	ID             string
	Source         string
	Seed           *uint64
	Records        []models.Record
	Warnings       []string
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// Info はテーブル本体を含まないメタデータを返します。
func (s *Session) Info() models.SessionInfo {
	return models.SessionInfo{
		ID:             s.ID,
		Source:         s.Source,
		Seed:           s.Seed,
		Records:        len(s.Records),
		Years:          DistinctYears(s.Records),
		Regions:        DistinctRegions(s.Records),
		Warnings:       s.Warnings,
		CreatedAt:      s.CreatedAt,
		LastAccessedAt: s.LastAccessedAt,
	}
}

// SessionService はセッションの作成・取得・削除と有効期限切れの掃除を行います。
type SessionService struct {
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	mu       sync.RWMutex
}

// NewSessionService は新しいSessionServiceを生成します。ttl が0以下なら期限切れになりません。
func NewSessionService(ttl time.Duration) *SessionService {
	return &SessionService{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create はロード結果から新しいセッションを登録します。
func (s *SessionService) Create(result *LoadResult) *Session {
	now := s.now()
	session := &Session{
		ID:             uuid.New().String(),
		Source:         result.Source,
		Seed:           result.Seed,
		Records:        result.Records,
		Warnings:       result.Warnings,
		CreatedAt:      now,
		LastAccessedAt: now,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	log.Printf("✅ Session %s created (%s, %d records)", session.ID, session.Source, len(session.Records))
	return session
}

// Get は最終アクセス時刻を更新し、セッションのコピーを返します。
// テーブル本体は共有されますが、変更されることはありません。
func (s *SessionService) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || s.expired(session) {
		return nil, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	session.LastAccessedAt = s.now()
	snapshot := *session
	return &snapshot, nil
}

// Delete drops a session and its table.
func (s *SessionService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	delete(s.sessions, id)
	return nil
}

// List は有効なセッションのメタデータを作成日時の順に返します。
func (s *SessionService) List() []models.SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]models.SessionInfo, 0, len(s.sessions))
	for _, session := range s.sessions {
		if s.expired(session) {
			continue
		}
		infos = append(infos, session.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// EvictExpired は期限切れのセッションを削除し、削除した件数を返します。
func (s *SessionService) EvictExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, session := range s.sessions {
		if s.expired(session) {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		log.Printf("🧹 Evicted %d expired session(s)", evicted)
	}
	return evicted
}

// StartJanitor は interval ごとに EvictExpired を実行します。stop を閉じると終了します。
func (s *SessionService) StartJanitor(interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.EvictExpired()
			case <-stop:
				return
			}
		}
	}()
}

func (s *SessionService) expired(session *Session) bool {
	return s.ttl > 0 && s.now().Sub(session.LastAccessedAt) > s.ttl
}
