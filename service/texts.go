package service

import (
	"fmt"
	"html"
	"strings"
	"time"

	"dispatchbot/pkg/models"
	"dispatchbot/pkg/telegram"
)

var esc = html.EscapeString

func takeKeyboard(tripID int64) telegram.Keyboard {
	return telegram.Keyboard{
		telegram.Row(telegram.Btn("✅ Принять заявку", fmt.Sprintf("trip_take_%d", tripID))),
	}
}

func writeDetails(b *strings.Builder, trip *models.Trip) {
	if trip.Comment != "" {
		b.WriteString("📍 Детали:\n")
		b.WriteString(esc(trip.Comment))
		b.WriteString("\n")
	}
}

func writeDispatcher(b *strings.Builder, trip *models.Trip) {
	if trip.DispatcherName == "" {
		return
	}
	fmt.Fprintf(b, "\n👤 Диспетчер: %s\n", esc(trip.DispatcherName))
	if trip.DispatcherPhone != "" {
		fmt.Fprintf(b, "📞 %s\n", esc(trip.DispatcherPhone))
	}
}

func writeDocumentsNote(b *strings.Builder, trip *models.Trip) {
	if n := len(trip.Documents); n > 0 {
		fmt.Fprintf(b, "\n📎 <b>Прикреплено документов: %d</b>\n(отправляются отдельными сообщениями)\n", n)
	}
}

func firstNotificationText(trip *models.Trip) string {
	var b strings.Builder
	b.WriteString("🚗 📋 <b>НОВАЯ ЗАЯВКА!</b>\n")
	b.WriteString("Вам нужно принять заявку❗❗❗\n\n")
	fmt.Fprintf(&b, "🆔 #%d\n", trip.ID)
	writeDocumentsNote(&b, trip)
	writeDetails(&b, trip)
	writeDispatcher(&b, trip)
	return b.String()
}

func updateNotificationText(trip *models.Trip) string {
	var b strings.Builder
	b.WriteString("ℹ️ <b>ОБНОВЛЕНИЕ ИНФОРМАЦИИ ПО ЗАЯВКЕ</b>\n\n")
	fmt.Fprintf(&b, "🆔 #%d\n", trip.ID)
	fmt.Fprintf(&b, "%s Статус: %s\n", trip.Status.Badge(), trip.Status.Label())
	writeDocumentsNote(&b, trip)
	writeDetails(&b, trip)
	return b.String()
}

func elapsedText(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d ч.", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d мин.", minutes))
	}
	if len(parts) == 0 {
		return "менее минуты"
	}
	return strings.Join(parts, " ")
}

func reminderText(trip *models.Trip, attempt int, elapsed time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔔 <b>ПОВТОРНОЕ НАПОМИНАНИЕ!</b> (%d-й раз)\n", attempt)
	b.WriteString("Заявка всё ещё не принята! ❗❗❗\n\n")
	fmt.Fprintf(&b, "🆔 #%d\n", trip.ID)
	writeDetails(&b, trip)
	writeDispatcher(&b, trip)
	fmt.Fprintf(&b, "\n⏱️ <b>Прошло времени:</b> %s", elapsedText(elapsed))
	b.WriteString("\n\n💡 <b>Срочно примите заявку!</b>")
	return b.String()
}

func cancellationText(trip *models.Trip) string {
	var b strings.Builder
	b.WriteString("🚫 <b>ОТМЕНА ЗАЯВКИ❗❗❗</b>\n\n")
	fmt.Fprintf(&b, "🆔 #%d\n", trip.ID)
	writeDetails(&b, trip)
	b.WriteString("\n⚠️ Заявка была отменена диспетчером.")
	if trip.Reason != "" {
		fmt.Fprintf(&b, "\n📝 Причина: %s", esc(trip.Reason))
	}
	b.WriteString("\n")
	writeDispatcher(&b, trip)
	return b.String()
}

func welcomeText(driver *models.Driver) string {
	return fmt.Sprintf("✅ Вы успешно зарегистрированы как: %s\n\n"+
		"Теперь вы будете получать заявки и можете использовать команды:\n"+
		"/mytrips - ваши заявки\n"+
		"/help - связь с диспетчером", esc(driver.Name))
}

type fileKind struct {
	icon string
	name string
}

var fileKinds = map[string]fileKind{
	"pdf":  {"📄", "PDF документ"},
	"doc":  {"📝", "Word документ"},
	"docx": {"📝", "Word документ"},
	"jpg":  {"🖼️", "Фото"},
	"jpeg": {"🖼️", "Фото"},
	"png":  {"🖼️", "Фото"},
	"xls":  {"📊", "Excel файл"},
	"xlsx": {"📊", "Excel файл"},
	"txt":  {"📝", "Текстовый файл"},
	"zip":  {"🗜️", "Архив ZIP"},
	"rar":  {"🗜️", "Архив RAR"},
	"csv":  {"📊", "Файл CSV"},
}

func humanSize(n int64) string {
	switch {
	case n <= 0:
		return ""
	case n < 1024:
		return fmt.Sprintf(" (%d B)", n)
	case n < 1024*1024:
		return fmt.Sprintf(" (%.1f KB)", float64(n)/1024)
	default:
		return fmt.Sprintf(" (%.1f MB)", float64(n)/(1024*1024))
	}
}

func attachmentCaption(tripID int64, doc models.Attachment, size int64) string {
	kind, ok := fileKinds[doc.Ext()]
	if !ok {
		kind = fileKind{"📎", "файл"}
	}
	name := doc.Name
	if name == "" {
		name = doc.Path[strings.LastIndex(doc.Path, "/")+1:]
	}
	return fmt.Sprintf("%s %s к заявке #%d\n📂 %s%s", kind.icon, kind.name, tripID, name, humanSize(size))
}

// Group chat texts.

func groupInfoLine(trip *models.Trip) string {
	return fmt.Sprintf("📍 <b>Информация:</b> %s %s\n", esc(trip.Name), esc(trip.CarNumber))
}

func groupAcceptedText(trip *models.Trip, driver *models.Driver, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ <b>Водитель %s принял заявку #%d</b>\n\n", esc(driver.Name), trip.ID)
	if trip.Date != nil {
		fmt.Fprintf(&b, "📍 <b>Дата:</b> %s\n", trip.Date.In(at.Location()).Format("02.01.2006"))
	}
	b.WriteString(groupInfoLine(trip))
	if trip.ClientName != "" {
		fmt.Fprintf(&b, "👨‍💼 <b>Заказчик:</b> %s\n", esc(trip.ClientName))
	}
	fmt.Fprintf(&b, "\n🕐 <i>Принято через бота:</i> %s", at.Format("15:04:05"))
	return b.String()
}

func groupWaybillText(trip *models.Trip, driver *models.Driver, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📎 <b>Водитель %s прикрепил путевой лист</b>\n\n", esc(driver.Name))
	fmt.Fprintf(&b, "📋 <b>Заявка:</b> #%d\n", trip.ID)
	b.WriteString(groupInfoLine(trip))
	fmt.Fprintf(&b, "\n🕐 <i>Прикреплено через бота:</i> %s", at.Format("15:04:05"))
	return b.String()
}

func groupCancelledText(trip *models.Trip, driver *models.Driver, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚫 <b>Заявка #%d отменена</b>\n\n", trip.ID)
	if trip.Reason != "" {
		fmt.Fprintf(&b, "📝 <b>Причина отмены:</b> %s\n", esc(trip.Reason))
	}
	if driver != nil {
		fmt.Fprintf(&b, "👤 <b>Водитель:</b> %s\n", esc(driver.Name))
	}
	b.WriteString(groupInfoLine(trip))
	if trip.ClientName != "" {
		fmt.Fprintf(&b, "👨‍💼 <b>Заказчик:</b> %s\n", esc(trip.ClientName))
	}
	fmt.Fprintf(&b, "\n🕐 <i>Отменена:</i> %s", at.Format("15:04:05"))
	return b.String()
}

func groupRepairText(trip *models.Trip, driver *models.Driver, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔧 <b>Заявка #%d В РЕМОНТЕ</b>\n\n", trip.ID)
	if driver != nil {
		fmt.Fprintf(&b, "👤 <b>Водитель:</b> %s\n", esc(driver.Name))
	}
	b.WriteString(groupInfoLine(trip))
	fmt.Fprintf(&b, "\n🕐 <i>Статус изменен:</i> %s", at.Format("15:04:05"))
	return b.String()
}

func groupHelpText(driver *models.Driver, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🆘 <b>Водитель %s просит связаться с ним</b>\n", esc(driver.Name))
	if driver.Phone != "" {
		fmt.Fprintf(&b, "📞 %s\n", esc(driver.Phone))
	}
	if driver.TelegramUsername != nil {
		fmt.Fprintf(&b, "💬 @%s\n", esc(*driver.TelegramUsername))
	}
	fmt.Fprintf(&b, "\n🕐 <i>Запрос:</i> %s", at.Format("15:04:05"))
	return b.String()
}
