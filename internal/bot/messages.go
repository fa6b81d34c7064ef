package bot

// Тексты ответов бота пользователю
const (
	msgHello = "👋 Привіт! Я перетворюю текст на голос і голос на текст.\n\n" +
		"✍️ Надішли текст до 500 символів, і я озвучу його.\n" +
		"🎤 Надішли голосове повідомлення до 30 секунд, і я його розпізнаю."
	msgUnknownCommand = "🤔 Невідома команда. Надішли /start, щоб побачити, що я вмію."
	msgTextTooLong    = "❌ Текст занадто довгий: %d символів. Максимум %d."
	msgVoiceTooLong   = "❌ Голосове повідомлення занадто довге: %d с. Максимум %d с."

	msgNoAudio     = "Не вдалося отримати аудіо 😢"
	msgNoVoiceFile = "Не вдалося отримати аудіофайл 😢"
	msgRequestErr  = "Помилка запиту: %s"
	msgServiceDown = "Помилка запиту: сервіс обробки недоступний 😢"
	msgInternalErr = "Щось пішло не так, спробуй ще раз пізніше 😢"

	msgTranscript      = "📜 <b>Розпізнаний текст:</b> <code>%s</code>\n🌍 <b>Мова:</b> <code>%s</code>"
	msgNoTranscript    = "Не вдалося розпізнати текст."
	msgUnknownLanguage = "невідома"
)
