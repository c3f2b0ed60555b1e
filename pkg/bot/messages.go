package bot

import "fmt"

const lang = "ru"

var messages = map[string]map[string]string{
	"ru": {
		"start": "👋 Добро пожаловать в диспетчерскую!\n\n" +
			"Я помогу вам получать заявки, менять их статус и отправлять путевые листы.\n\n" +
			"📋 Доступные команды:\n" +
			"/mytrips - Мои заявки\n" +
			"/help - Связаться с диспетчером",
		"help": "🆘 Ваш запрос передан диспетчеру. Ожидайте ответа в ближайшее время.\n\n" +
			"Диспетчер свяжется с вами для уточнения деталей.",
		"driver_not_registered": "❌ Водитель не найден. Используйте /start для регистрации.",

		"driver_not_found": "❌ Ошибка: водитель не найден",
		"unknown_action":   "❌ Неизвестное действие",
		"callback_failed":  "❌ Ошибка при обработке запроса",
		"trip_not_found":   "❌ Заявка не найдена",
		"trip_taken":       "❌ Заявка уже взята другим водителем",
		"not_owner":        "❌ Эта заявка назначена другому водителю",
		"not_assigned":     "❌ Эта заявка не назначена вам",
		"rejected":         "❌ Вы отказались от заявки #%d",
		"status_changed":   "✅ Статус заявки #%d изменен на: %s",

		"waybill_prompt":      "📄 Отправьте путевой лист для заявки #%d\n\nПрикрепите фото или документ:",
		"waybill_placeholder": "📎 Прикрепите файл...",
		"waybill_no_pending":  "❌ Сначала выберите заявку для прикрепления путевого листа",
		"waybill_not_owner":   "❌ Ошибка: заявка не найдена или не принадлежит вам",
		"waybill_saved":       "✅ Путевой лист прикреплен к заявке #%d\n\nФайл: %s",
		"waybill_photo_saved": "✅ Путевой лист (фото) прикреплен к заявке #%d",
		"waybill_file_failed": "❌ Ошибка при сохранении файла",
		"waybill_photo_fail":  "❌ Ошибка при сохранении фото",

		"main_menu":        "🚗 МОИ ЗАЯВКИ\n\n📊 Статистика:\n• Доступно: %d\n• Активные: %d\n• Всего: %d",
		"no_available":     "📭 Нет доступных заявок",
		"available_header": "📋 ДОСТУПНЫЕ ЗАЯВКИ (%d)",
		"no_active":        "🚗 Нет активных заявок",
		"no_waybill_trips": "📭 Нет заявок для отправки путевого листа",
		"waybill_header":   "📤 ОТПРАВИТЬ ПУТЕВОЙ ЛИСТ\n\nВыберите заявку:",
	},
}

func msg(key string, args ...any) string {
	text, ok := messages[lang][key]
	if !ok {
		return key
	}
	if len(args) == 0 {
		return text
	}
	return fmt.Sprintf(text, args...)
}
