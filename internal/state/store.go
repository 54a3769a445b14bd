package state

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"resto-sync/internal/dto"
	"resto-sync/internal/repositories"
)

// Store - единственный источник правды для интерфейса. Пишут в него
// только реле; интерфейс и слушатели читают снимки. Создается явно и
// передается по ссылке, никаких глобальных переменных.
//
// Инвариант: unread всегда равен числу уведомлений с IsRead == false.
// Каждый мутирующий метод поддерживает обе величины в одной
// критической секции, так что снимок не может увидеть их рассинхрон.
type Store struct {
	name       string
	persistTTL time.Duration
	cache      repositories.CacheRepositoryInterface
	logger     *zap.Logger

	mu             sync.RWMutex
	notifyMu       sync.Mutex
	notifications  []dto.NotificationEntryDTO
	unread         int
	sessions       []dto.SessionSummaryDTO
	chosenTable    int
	persistedReads map[uint64]bool
	listeners      []func(dto.ViewStateDTO)
}

// NewStore создает хранилище. cache может быть nil - тогда состояние
// живет только в памяти и не переживает перезапуск.
func NewStore(name string, persistTTL time.Duration, cache repositories.CacheRepositoryInterface, logger *zap.Logger) *Store {
	return &Store{
		name:           name,
		persistTTL:     persistTTL,
		cache:          cache,
		logger:         logger,
		notifications:  make([]dto.NotificationEntryDTO, 0),
		sessions:       make([]dto.SessionSummaryDTO, 0),
		persistedReads: make(map[uint64]bool),
	}
}

// OnChange регистрирует слушателя, получающего снимок после каждой
// мутации, строго в порядке мутаций. Слушатель не должен вызывать
// мутирующие методы хранилища.
func (s *Store) OnChange(listener func(dto.ViewStateDTO)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, listener)
	s.mu.Unlock()
}

// Snapshot возвращает копию состояния.
func (s *Store) Snapshot() dto.ViewStateDTO {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() dto.ViewStateDTO {
	notifications := make([]dto.NotificationEntryDTO, len(s.notifications))
	copy(notifications, s.notifications)
	sessions := make([]dto.SessionSummaryDTO, len(s.sessions))
	copy(sessions, s.sessions)
	return dto.ViewStateDTO{
		Notifications: notifications,
		UnreadCount:   s.unread,
		Sessions:      sessions,
		ChosenTable:   s.chosenTable,
	}
}

// publishLocked рассылает снимок слушателям. Очередь доставки
// захватывается еще под основной блокировкой: две конкурирующие
// мутации не могут доставить снимки в обратном порядке, иначе
// интерфейс увидел бы откат состояния. Вызывается с удержанным s.mu,
// возвращается с отпущенными обеими блокировками.
func (s *Store) publishLocked() {
	snapshot := s.snapshotLocked()
	listeners := s.listeners
	s.notifyMu.Lock()
	s.mu.Unlock()
	for _, listener := range listeners {
		listener(snapshot)
	}
	s.notifyMu.Unlock()
}

// SetNotifications замещает список целиком: дедупликация по ID c
// сохранением порядка, счетчик пересчитывается. Одна атомарная мутация.
func (s *Store) SetNotifications(entries []dto.NotificationEntryDTO) {
	s.mu.Lock()
	seen := make(map[uint64]bool, len(entries))
	deduped := make([]dto.NotificationEntryDTO, 0, len(entries))
	unread := 0
	for _, entry := range entries {
		if seen[entry.ID] {
			continue
		}
		seen[entry.ID] = true
		if s.persistedReads[entry.ID] {
			entry.IsRead = true
		}
		if !entry.IsRead {
			unread++
		}
		deduped = append(deduped, entry)
	}
	s.notifications = deduped
	s.unread = unread
	s.publishLocked()
}

// PrependNotification добавляет запись в начало списка. Дубликат по ID
// отбрасывается, возвращается false. Счетчик растет только на непрочитанной.
func (s *Store) PrependNotification(entry dto.NotificationEntryDTO) bool {
	s.mu.Lock()
	for _, existing := range s.notifications {
		if existing.ID == entry.ID {
			s.mu.Unlock()
			return false
		}
	}
	s.notifications = append([]dto.NotificationEntryDTO{entry}, s.notifications...)
	if !entry.IsRead {
		s.unread++
	}
	s.publishLocked()
	return true
}

// MarkRead отмечает одну запись прочитанной. Счетчик уменьшается не
// больше чем на единицу и никогда не уходит ниже нуля: локальный счет
// может разойтись с сервером после мутаций с другого устройства.
func (s *Store) MarkRead(userNotificationID uint64) bool {
	s.mu.Lock()
	found := false
	for i := range s.notifications {
		if s.notifications[i].ID != userNotificationID {
			continue
		}
		found = true
		if !s.notifications[i].IsRead {
			now := time.Now().UTC()
			s.notifications[i].IsRead = true
			s.notifications[i].ReadAt = &now
			if s.unread > 0 {
				s.unread--
			}
		}
		break
	}
	if !found {
		s.mu.Unlock()
		return false
	}
	s.publishLocked()
	return true
}

// MarkAllRead отмечает прочитанными все записи и обнуляет счетчик.
func (s *Store) MarkAllRead() {
	s.mu.Lock()
	now := time.Now().UTC()
	for i := range s.notifications {
		if !s.notifications[i].IsRead {
			s.notifications[i].IsRead = true
			readAt := now
			s.notifications[i].ReadAt = &readAt
		}
	}
	s.unread = 0
	s.publishLocked()
}

// SetSessions замещает список сессий целиком, без слияний.
func (s *Store) SetSessions(sessions []dto.SessionSummaryDTO) {
	s.mu.Lock()
	replaced := make([]dto.SessionSummaryDTO, len(sessions))
	copy(replaced, sessions)
	s.sessions = replaced
	s.publishLocked()
}

// SetChosenTable запоминает выбранный официантом стол.
func (s *Store) SetChosenTable(tableNumber int) {
	s.mu.Lock()
	s.chosenTable = tableNumber
	s.publishLocked()
}

// UnreadCount - текущее число непрочитанных.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// persistedState - сохраняемое подмножество состояния: список сессий,
// выбранный стол и отметки о прочтении. Остальное восстанавливается
// начальной выборкой.
type persistedState struct {
	Sessions    []dto.SessionSummaryDTO `json:"sessions"`
	ChosenTable int                     `json:"chosen_table"`
	ReadIDs     []uint64                `json:"read_ids"`
}

func (s *Store) persistKey() string {
	return "viewstate:" + s.name
}

// Persist сохраняет снимок разрешенного подмножества.
func (s *Store) Persist(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	s.mu.RLock()
	snapshot := persistedState{
		Sessions:    make([]dto.SessionSummaryDTO, len(s.sessions)),
		ChosenTable: s.chosenTable,
	}
	copy(snapshot.Sessions, s.sessions)
	for _, entry := range s.notifications {
		if entry.IsRead {
			snapshot.ReadIDs = append(snapshot.ReadIDs, entry.ID)
		}
	}
	s.mu.RUnlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.persistKey(), data, s.persistTTL)
}

// Restore поднимает сохраненный снимок. Отсутствие снимка - не ошибка.
func (s *Store) Restore(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	raw, err := s.cache.Get(ctx, s.persistKey())
	if err != nil {
		return nil
	}

	var saved persistedState
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		s.logger.Warn("Сохраненное состояние нечитаемо, пропускаем", zap.Error(err))
		return nil
	}

	s.mu.Lock()
	s.sessions = saved.Sessions
	if s.sessions == nil {
		s.sessions = make([]dto.SessionSummaryDTO, 0)
	}
	s.chosenTable = saved.ChosenTable
	s.persistedReads = make(map[uint64]bool, len(saved.ReadIDs))
	for _, id := range saved.ReadIDs {
		s.persistedReads[id] = true
	}
	s.publishLocked()
	return nil
}

// Clear сбрасывает состояние и удаляет снимок (выход из аккаунта).
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.notifications = make([]dto.NotificationEntryDTO, 0)
	s.sessions = make([]dto.SessionSummaryDTO, 0)
	s.unread = 0
	s.chosenTable = 0
	s.persistedReads = make(map[uint64]bool)
	s.publishLocked()

	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, s.persistKey())
}
