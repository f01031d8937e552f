package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"studiorit/internal/logging"
	"studiorit/internal/repositories"
)

// EmailSender and TelegramSender are the delivery channels a Notifier fans out to.
type EmailSender interface {
	SendNotification(to, subject, body string) error
}

type TelegramSender interface {
	SendMessage(chatID int64, subject, body string) error
}

// Notifier delivers workflow events to a user. Delivery is best effort:
// failures are logged and never returned.
type Notifier interface {
	Notify(ctx context.Context, userID, subject, body string)
}

type notificationService struct {
	users    repositories.UserRepository
	email    EmailSender
	telegram TelegramSender

	emailCB    *gobreaker.CircuitBreaker
	telegramCB *gobreaker.CircuitBreaker
}

// NewNotificationService wires the channels that are non-nil.
func NewNotificationService(users repositories.UserRepository, email EmailSender, telegram TelegramSender) Notifier {
	return &notificationService{
		users:      users,
		email:      email,
		telegram:   telegram,
		emailCB:    newBreaker("EmailCB"),
		telegramCB: newBreaker("TelegramCB"),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Warnf("[notify][breaker][state] %s %s -> %s", name, from.String(), to.String())
		},
	})
}

func (s *notificationService) Notify(ctx context.Context, userID, subject, body string) {
	if userID == "" {
		return
	}
	log := logging.Logger.WithFields(logrus.Fields{"user_id": userID, "subject": subject})

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		log.WithError(err).Warn("[notify][lookup][err]")
		return
	}

	if s.email != nil && u.Email != "" {
		_, err := s.emailCB.Execute(func() (interface{}, error) {
			return nil, s.email.SendNotification(u.Email, subject, body)
		})
		if err != nil {
			log.WithError(err).Warn("[notify][email][err]")
		} else {
			log.Debug("[notify][email][ok]")
		}
	}

	if s.telegram != nil && u.TelegramChatID != 0 {
		_, err := s.telegramCB.Execute(func() (interface{}, error) {
			return nil, s.telegram.SendMessage(u.TelegramChatID, subject, body)
		})
		if err != nil {
			log.WithError(err).Warn("[notify][tg][err]")
		} else {
			log.Debug("[notify][tg][ok]")
		}
	}
}

// nopNotifier drops every event.
type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, string, string) {}
