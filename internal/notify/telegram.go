// Package notify sends front-desk events to manager Telegram chats.
package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"frontdesk/internal/billing"
	"frontdesk/internal/domain"
	"frontdesk/internal/events"
	"frontdesk/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const parseModeMarkdown = "Markdown"

type TelegramNotifier struct {
	bot    domain.TelegramSender
	chats  []int64
	logger *zerolog.Logger
}

// NewBotAPI logs in to Telegram with the given token.
func NewBotAPI(token string, debug bool) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	bot.Debug = debug
	return bot, nil
}

func NewTelegramNotifier(bot domain.TelegramSender, chats []int64, logger *zerolog.Logger) *TelegramNotifier {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &TelegramNotifier{bot: bot, chats: chats, logger: logger}
}

// Attach subscribes the notifier to booking creation and room release.
func (n *TelegramNotifier) Attach(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, n.onBookingCreated)
	bus.Subscribe(events.EventRoomReleased, n.onRoomReleased)
}

func (n *TelegramNotifier) onBookingCreated(event *events.Event) error {
	var p events.BookingEventPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return fmt.Errorf("decode %s: %w", event.Type, err)
	}
	return n.Broadcast(FormatBookingCreated(p))
}

func (n *TelegramNotifier) onRoomReleased(event *events.Event) error {
	var p events.RoomReleasedPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return fmt.Errorf("decode %s: %w", event.Type, err)
	}
	return n.Broadcast(FormatRoomReleased(p))
}

// Broadcast sends text to every manager chat. A failed chat does not stop the rest.
func (n *TelegramNotifier) Broadcast(text string) error {
	var errs []error
	for _, chatID := range n.chats {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = parseModeMarkdown
		if _, err := n.bot.Send(msg); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("telegram send failed")
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

func FormatBookingCreated(p events.BookingEventPayload) string {
	var sb strings.Builder
	sb.WriteString("🛎 *New booking*\n\n")
	fmt.Fprintf(&sb, "Booking: #%d\n", p.BookingID)
	fmt.Fprintf(&sb, "Guest: %s\n", tgbotapi.EscapeText(parseModeMarkdown, p.GuestName))
	fmt.Fprintf(&sb, "Room: %d (%s)\n", p.RoomNumber, p.RoomType)
	fmt.Fprintf(&sb, "Stay: %s → %s, %d nights\n",
		p.CheckIn.Format(models.DateLayout), p.CheckOut.Format(models.DateLayout), p.Nights)
	fmt.Fprintf(&sb, "Total: %s", billing.FormatRupees(p.TotalAmount))
	return sb.String()
}

func FormatRoomReleased(p events.RoomReleasedPayload) string {
	text := fmt.Sprintf("🔓 *Room %d released*", p.RoomNumber)
	if len(p.Guests) > 0 {
		guests := make([]string, len(p.Guests))
		for i, g := range p.Guests {
			guests[i] = tgbotapi.EscapeText(parseModeMarkdown, g)
		}
		text += "\nGuest: " + strings.Join(guests, ", ")
	}
	return text
}
