package horoscope

import (
	"fmt"
	"time"

	"github.com/lunari-bot/lunari-telegram-bot/internal/domain"
)

// Message renders a horoscope reply for sign on the date of t.
func Message(sign domain.Sign, t time.Time, text string) string {
	return fmt.Sprintf("🔮 Гороскоп для %s на %s:\n\n%s", sign, domain.DayMonth(t), text)
}

// DeliveryMessage is Message with the scheduled-delivery heading.
func DeliveryMessage(sign domain.Sign, t time.Time, text string) string {
	return "✨ Новое предсказание прибыло!\n\n" + Message(sign, t, text)
}
