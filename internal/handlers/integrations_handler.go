package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"studiorit/internal/authz"
	"studiorit/internal/clock"
	"studiorit/internal/logging"
	"studiorit/internal/models"
	"studiorit/internal/services"
)

const digestLimit = 10

// ChatReplier answers a Telegram chat.
type ChatReplier interface {
	Reply(chatID int64, text string) error
}

type IntegrationsHandler struct {
	bot    ChatReplier
	linker services.TelegramLinker
	tasks  services.TaskService
}

func NewIntegrationsHandler(bot ChatReplier, linker services.TelegramLinker, tasks services.TaskService) *IntegrationsHandler {
	return &IntegrationsHandler{bot: bot, linker: linker, tasks: tasks}
}

type tgUpdate struct {
	Message *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// Webhook handles bot updates. It always answers 200 so Telegram does not
// redeliver.
func (h *IntegrationsHandler) Webhook(c *gin.Context) {
	var up tgUpdate
	if err := c.ShouldBindJSON(&up); err != nil || up.Message == nil {
		logging.Logger.WithError(err).Debug("[tg][webhook][skip]")
		c.Status(http.StatusOK)
		return
	}
	text := strings.TrimSpace(up.Message.Text)
	chatID := up.Message.Chat.ID

	switch {
	case strings.HasPrefix(text, "/start"):
		h.reply(chatID, "Hi! To receive task notifications here, request a link code in Studio RIT and send:\n/link <code>")
	case strings.HasPrefix(text, "/link"):
		user, err := h.linker.Link(c.Request.Context(), strings.TrimPrefix(text, "/link"), chatID)
		if err != nil {
			logging.Logger.WithError(err).Warnf("[tg][webhook][link_err] chatID=%d", chatID)
			h.reply(chatID, "The code is invalid or expired. Request a new one and try again.")
			break
		}
		h.reply(chatID, "Done! Your account is linked, "+user.Name+".")
		h.reply(chatID, h.digest(c.Request.Context(), user))
	default:
		h.reply(chatID, "Unknown command. Use /link <code>.")
	}
	c.Status(http.StatusOK)
}

// RequestTelegramLink issues a one-time code for the caller.
func (h *IntegrationsHandler) RequestTelegramLink(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	code, exp, err := h.linker.RequestLink(c.Request.Context(), a)
	if err != nil {
		respondError(c, "tg", "request_link", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":      code,
		"expiresAt": exp,
		"hint":      "Open the bot chat and send: /link " + code,
	})
}

func (h *IntegrationsHandler) reply(chatID int64, text string) {
	if h.bot == nil {
		return
	}
	if err := h.bot.Reply(chatID, text); err != nil {
		logging.Logger.WithError(err).Warnf("[tg][reply][err] chatID=%d", chatID)
	}
}

// digest lists the user's unfinished tasks grouped by days left.
func (h *IntegrationsHandler) digest(ctx context.Context, u *models.User) string {
	uid := u.ID
	tasks, err := h.tasks.ListTasks(ctx, authz.ActorFromUser(u), models.TaskFilter{AssignedTo: &uid})
	if err != nil {
		return "Could not load your tasks."
	}
	var active []*models.TaskDetail
	for _, t := range tasks {
		if t.Status != models.StatusCompleted {
			active = append(active, t)
		}
	}
	if len(active) == 0 {
		return "You have no active tasks."
	}
	sort.Slice(active, func(i, j int) bool { return active[i].DueDate.Before(active[j].DueDate) })

	now := clock.Now()
	var b strings.Builder
	b.WriteString("Your active tasks:\n")
	for i, t := range active {
		if i == digestLimit {
			fmt.Fprintf(&b, "...and %d more\n", len(active)-digestLimit)
			break
		}
		fmt.Fprintf(&b, "- %s (%s, %s) %s\n", t.Title, t.Status, t.Priority, dueBucket(now, t.DueDate))
	}
	return b.String()
}

func dueBucket(now, due time.Time) string {
	if due.Before(now) {
		late := int(now.Sub(due).Hours() / 24)
		if late < 1 {
			late = 1
		}
		return fmt.Sprintf("overdue by %d day(s)", late)
	}
	switch days := int(due.Sub(now).Hours() / 24); {
	case days == 0:
		return "due today"
	case days == 1:
		return "due in 1 day"
	default:
		return fmt.Sprintf("due in %d days", days)
	}
}
