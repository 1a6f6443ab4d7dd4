package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/lunari-bot/lunari-telegram-bot/internal/domain"
	"github.com/lunari-bot/lunari-telegram-bot/internal/horoscope"
	"github.com/lunari-bot/lunari-telegram-bot/internal/natal"
)

func (r *Router) handleStart(ctx context.Context, chatID int64) {
	r.subs.Subscribe(chatID)
	kb := signKeyboard()

	if len(r.welcome) > 0 {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "welcome.png", Bytes: r.welcome})
		photo.Caption = welcomeText
		photo.ParseMode = tgbotapi.ModeHTML
		photo.ReplyMarkup = kb
		err := r.send(ctx, photo)
		if err == nil {
			return
		}
		r.log.Warn("welcome photo failed, falling back to text", zap.Int64("chatID", chatID), zap.Error(err))
	}

	msg := tgbotapi.NewMessage(chatID, welcomeText)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = kb
	if err := r.send(ctx, msg); err != nil {
		r.log.Warn("send failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

func (r *Router) handleZodiacChoice(ctx context.Context, chatID int64, text string) {
	sign, err := r.subs.SetZodiacSign(chatID, text)
	if err != nil {
		r.sendText(ctx, chatID, signInvalidText)
		return
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(signChosenFmt, sign))
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	if err := r.send(ctx, msg); err != nil {
		r.log.Warn("send failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

func (r *Router) handleToday(ctx context.Context, chatID int64) {
	sub, ok := r.subs.Get(chatID)
	if !ok || sub.Sign == nil {
		r.sendText(ctx, chatID, noSignText)
		return
	}
	now := r.clock()
	text, err := horoscope.TextOrPlaceholder(ctx, r.lookup, *sub.Sign, domain.DateKey(now))
	if err != nil {
		r.log.Error("horoscope lookup failed",
			zap.Int64("chatID", chatID), zap.String("sign", sub.Sign.String()), zap.Error(err))
		r.sendText(ctx, chatID, todayFailedText)
		return
	}
	r.sendText(ctx, chatID, horoscope.Message(*sub.Sign, now, text))
}

func (r *Router) handleSetTime(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		r.sendText(ctx, chatID, setTimeUsageText)
		return
	}
	at, err := r.subs.SetDeliveryTime(chatID, args[0])
	if err != nil {
		r.sendText(ctx, chatID, setTimeInvalidText)
		return
	}
	reply := fmt.Sprintf(setTimeOKFmt, at)
	if sub, ok := r.subs.Get(chatID); !ok || !sub.Subscribed {
		reply += "\n" + setTimeNotSubText
	}
	r.sendText(ctx, chatID, reply)
}

func (r *Router) handleUnsubscribe(ctx context.Context, chatID int64) {
	r.subs.Unsubscribe(chatID)
	r.sendText(ctx, chatID, unsubscribedText)
}

func (r *Router) handleStatus(ctx context.Context, chatID int64) {
	sub, _ := r.subs.Get(chatID)

	delivery := "выключена"
	if sub.Subscribed {
		delivery = "включена"
	}
	sign := "не выбран"
	if sub.Sign != nil {
		sign = sub.Sign.String()
	}
	at := "не задано"
	if sub.DeliveryTime != nil {
		at = sub.DeliveryTime.String()
	}

	var b strings.Builder
	b.WriteString(statusTitle)
	b.WriteString("\n")
	fmt.Fprintf(&b, statusFmt, delivery, sign, at)
	r.sendText(ctx, chatID, b.String())
}

func (r *Router) handleNatal(ctx context.Context, chatID int64) {
	if r.natal == nil {
		r.sendText(ctx, chatID, natalDisabledText)
		return
	}
	s := &natal.Session{}
	r.setPending(chatID, s)
	r.sendText(ctx, chatID, s.Prompt())
}

func (r *Router) handleNatalInput(ctx context.Context, chatID int64, s *natal.Session, text string) {
	if err := s.Feed(text, r.clock()); err != nil {
		r.sendText(ctx, chatID, natalInvalidText+"\n"+s.Prompt())
		return
	}
	if !s.Done() {
		r.sendText(ctx, chatID, s.Prompt())
		return
	}

	r.clearPending(chatID)
	r.sendText(ctx, chatID, natalWorkingText)

	data := s.Data
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.generateNatal(ctx, chatID, data)
	}()
}

func (r *Router) generateNatal(ctx context.Context, chatID int64, data natal.BirthData) {
	text, err := r.natal.Generate(ctx, data)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		r.log.Error("natal generation failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(ctx, chatID, natalFailedText)
		return
	}
	if err := r.SendMessage(ctx, chatID, fmt.Sprintf(natalResultFmt, text)); err != nil {
		r.log.Warn("send failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

func (r *Router) handleCancel(ctx context.Context, chatID int64) {
	if r.clearPending(chatID) {
		r.sendText(ctx, chatID, cancelText)
		return
	}
	r.sendText(ctx, chatID, nothingToCancelText)
}

func (r *Router) sendText(ctx context.Context, chatID int64, text string) {
	if err := r.send(ctx, tgbotapi.NewMessage(chatID, text)); err != nil {
		r.log.Warn("send failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}
