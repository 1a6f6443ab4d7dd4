package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lunari-bot/lunari-telegram-bot/internal/domain"
)

// UI texts in Russian
const (
	welcomeText = "<b>✨ Добро пожаловать в гороскоп-бот Lunari! ✨</b>\n\n" +
		"Здесь ты найдёшь:\n" +
		"🔮 Ежедневные гороскопы по твоему знаку\n" +
		"🌌 Натальные карты по дате, времени и месту рождения\n" +
		"🪐 Астрологические подсказки и мотивации\n\n" +
		"<b>Команды:</b>\n" +
		"/start — Подписаться и выбрать знак зодиака\n" +
		"/today — Гороскоп на сегодня\n" +
		"/unsubscribe — Отписаться от рассылки\n" +
		"/settime — Время получения гороскопа\n" +
		"/natal — Натальная карта\n" +
		"/help — Помощь по командам\n\n" +
		"Сначала выбери свой знак зодиака:"

	helpText = "/start — Выбрать знак зодиака ✨\n" +
		"/today — Гороскоп на сегодня 🔮\n" +
		"/unsubscribe — Отписаться 💫\n" +
		"/settime — Время рассылки 🕒\n" +
		"/status — Мои настройки 🧾\n" +
		"/natal — Натальная карта 🌌\n" +
		"/cancel — Отменить ввод данных"

	signChosenFmt       = "Твой знак зодиака — %s! Используй /today для гороскопа ✨\nЧтобы получать гороскоп каждый день, укажи время: /settime 08:30"
	signInvalidText     = "Пожалуйста, выбери знак с клавиатуры."
	noSignText          = "Сначала выбери знак зодиака через /start"
	todayFailedText     = "Не удалось получить гороскоп, попробуй позже."
	setTimeUsageText    = "Укажи время в формате HH:MM, например 08:30"
	setTimeInvalidText  = "⛔ Неверный формат. Пример: 08:30"
	setTimeOKFmt        = "✅ Время установлено на %s"
	setTimeNotSubText   = "Ежедневная рассылка сейчас выключена. Подпишись через /start, чтобы получать гороскоп."
	unsubscribedText    = "Ты отписан от ежедневной рассылки 💫"
	unknownCommandText  = "Не знаю такой команды. Список команд: /help"
	natalDisabledText   = "🌌 Натальные карты временно недоступны."
	natalInvalidText    = "⛔ Не получилось разобрать ответ."
	natalWorkingText    = "✨ Составляю натальную карту, это может занять до минуты…"
	natalResultFmt      = "🌌 Вот описание твоей натальной карты:\n\n%s"
	natalFailedText     = "⛔ Ошибка при генерации карты. Попробуй позже."
	cancelText          = "Окей, отмена ✨"
	nothingToCancelText = "Нечего отменять ✨"

	statusTitle = "🧾 Твои настройки:"
	statusFmt   = "• Рассылка: %s\n• Знак: %s\n• Время: %s\n"
)

// signKeyboard lays the twelve signs out in rows of three.
func signKeyboard() tgbotapi.ReplyKeyboardMarkup {
	signs := domain.Signs()
	rows := make([][]tgbotapi.KeyboardButton, 0, len(signs)/3)
	for i := 0; i < len(signs); i += 3 {
		row := make([]tgbotapi.KeyboardButton, 0, 3)
		for _, s := range signs[i : i+3] {
			row = append(row, tgbotapi.NewKeyboardButton(s.String()))
		}
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(row...))
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}
