// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ежедневные напоминания
// о зависших в наборе играх Тайного Санты.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"giftflow.ru/giftflow-bot/internal/features/santa"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron         *cron.Cron
	santaService *santa.Service
	staleAfter   time.Duration
}

// NewScheduler создаёт планировщик задач с московским часовым поясом.
func NewScheduler(santaService *santa.Service, staleAfter time.Duration) *Scheduler {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		log.WithError(err).Warn("Не удалось загрузить Europe/Moscow, используем UTC+3")
		loc = time.FixedZone("MSK", 3*60*60)
	}

	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:         c,
		santaService: santaService,
		staleAfter:   staleAfter,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Напоминания о зависших играх — каждый день в 12:00 по Москве
	s.cron.AddFunc("0 12 * * *", func() {
		log.Info("[CRON] Проверка зависших игр")
		if err := s.santaService.RemindStaleRecruiting(ctx, s.staleAfter); err != nil {
			log.WithError(err).Error("[CRON] Ошибка напоминаний")
		}
	})

	s.cron.Start()
	log.Info("Планировщик задач запущен (Europe/Moscow)")
}

// Stop останавливает планировщик.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
