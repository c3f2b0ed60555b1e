package bot

import (
	"context"
	"fmt"
	"strings"

	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/models"
	"dispatchbot/pkg/telegram"
)

const availableTripsLimit = 5

func (b *Bot) send(ctx context.Context, chatID int64, text string, opts *telegram.SendOptions) error {
	_, err := b.Gw.SendMessage(ctx, chatID, text, opts)
	return err
}

func field(sb *strings.Builder, prefix, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(sb, "%s%s: %s\n", prefix, label, value)
}

func tripDate(trip *models.Trip) string {
	if trip.Date == nil {
		return ""
	}
	return trip.Date.Format("02.01.2006 15:04")
}

func statusLine(s models.TripStatus) string {
	return s.Badge() + " " + s.Label()
}

func mainMenuKeyboard() telegram.Keyboard {
	return telegram.Keyboard{
		telegram.Row(
			telegram.Btn("📋 Доступные заявки", "menu_available_trips"),
			telegram.Btn("🚗 В работе", "menu_active_trips"),
		),
		telegram.Row(
			telegram.Btn("📤 Отправить путевой", "menu_send_waybill"),
			telegram.Btn("🔄 Обновить", "menu_refresh"),
		),
	}
}

// showMainMenu edits messageID in place when given, falling back to a new message.
func (b *Bot) showMainMenu(ctx context.Context, driver *models.Driver, chatID int64, messageID int) error {
	counts, err := b.Svc.Trip().Counts(ctx, driver.ID)
	if err != nil {
		return err
	}
	text := msg("main_menu", counts.Available, counts.Active, counts.Total)
	opts := &telegram.SendOptions{Keyboard: mainMenuKeyboard()}

	if messageID > 0 {
		err := b.Gw.EditMessage(ctx, chatID, messageID, text, opts)
		if err == nil {
			return nil
		}
		if strings.Contains(err.Error(), "not modified") {
			return nil
		}
		b.Log.Debug("main menu edit failed, sending a new one", logger.Int64("chat_id", chatID), logger.Error(err))
	}
	return b.send(ctx, chatID, text, opts)
}

func tripListText(trip *models.Trip, icon string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s ЗАЯВКА #%d\n", icon, trip.ID)
	field(&sb, "", "Название", trip.Name)
	field(&sb, "", "Адрес", trip.Address)
	field(&sb, "", "Клиент", trip.ClientName)
	field(&sb, "", "Статус", statusLine(trip.Status))
	field(&sb, "", "Дата", tripDate(trip))
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Bot) showAvailableTrips(ctx context.Context, driver *models.Driver, chatID int64) error {
	trips, err := b.Svc.Trip().DriverTrips(ctx, driver.ID, []models.TripStatus{models.TripStatusNew}, availableTripsLimit)
	if err != nil {
		return err
	}
	if len(trips) == 0 {
		return b.send(ctx, chatID, msg("no_available"), nil)
	}
	if err := b.send(ctx, chatID, msg("available_header", len(trips)), nil); err != nil {
		return err
	}
	for _, trip := range trips {
		kb := telegram.Keyboard{telegram.Row(
			telegram.Btn("✅ Взять заявку", fmt.Sprintf("trip_take_%d", trip.ID)),
			telegram.Btn("👀 Подробнее", fmt.Sprintf("trip_details_%d", trip.ID)),
		)}
		if err := b.send(ctx, chatID, tripListText(trip, "📋"), &telegram.SendOptions{Keyboard: kb}); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) showActiveTrips(ctx context.Context, driver *models.Driver, chatID int64) error {
	trips, err := b.Svc.Trip().DriverTrips(ctx, driver.ID, []models.TripStatus{models.TripStatusInProgress}, 0)
	if err != nil {
		return err
	}
	if len(trips) == 0 {
		return b.send(ctx, chatID, msg("no_active"), nil)
	}
	for _, trip := range trips {
		kb := telegram.Keyboard{telegram.Row(
			telegram.Btn("📍 Изменить статус", fmt.Sprintf("status_menu_%d", trip.ID)),
			telegram.Btn("📄 Путевой лист", fmt.Sprintf("waybill_attach_%d", trip.ID)),
		)}
		if err := b.send(ctx, chatID, tripListText(trip, "🚗"), &telegram.SendOptions{Keyboard: kb}); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) showWaybillTrips(ctx context.Context, driver *models.Driver, chatID int64) error {
	trips, err := b.Svc.Trip().DriverTrips(ctx, driver.ID, []models.TripStatus{
		models.TripStatusInProgress,
		models.TripStatusCompleted,
	}, 0)
	if err != nil {
		return err
	}
	if len(trips) == 0 {
		return b.send(ctx, chatID, msg("no_waybill_trips"), nil)
	}
	kb := make(telegram.Keyboard, 0, len(trips))
	for _, trip := range trips {
		label := fmt.Sprintf("%s #%d", trip.Status.Badge(), trip.ID)
		if trip.Name != "" {
			label += " " + trip.Name
		}
		if trip.HasWaybill {
			label += " 📎"
		}
		kb = append(kb, telegram.Row(telegram.Btn(label, fmt.Sprintf("waybill_attach_%d", trip.ID))))
	}
	return b.send(ctx, chatID, msg("waybill_header"), &telegram.SendOptions{Keyboard: kb})
}

func tripDetailsText(trip *models.Trip) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 ДЕТАЛИ ЗАЯВКИ #%d\n\n", trip.ID)
	field(&sb, "📌 ", "Название", trip.Name)
	field(&sb, "📍 ", "Адрес", trip.Address)
	field(&sb, "👤 ", "Клиент", trip.ClientName)
	field(&sb, "📞 ", "Телефон", trip.ClientPhone)
	field(&sb, "📅 ", "Дата", tripDate(trip))
	field(&sb, "🚚 ", "Машина", trip.CarNumber)
	field(&sb, "📊 ", "Статус", statusLine(trip.Status))
	if trip.Comment != "" {
		fmt.Fprintf(&sb, "\n💬 %s\n", trip.Comment)
	}
	if trip.DispatcherName != "" {
		fmt.Fprintf(&sb, "\n👤 Диспетчер: %s", trip.DispatcherName)
		if trip.DispatcherPhone != "" {
			fmt.Fprintf(&sb, ", %s", trip.DispatcherPhone)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func tripDetailsKeyboard(tripID int64) telegram.Keyboard {
	return telegram.Keyboard{
		telegram.Row(
			telegram.Btn("✅ Взять заявку", fmt.Sprintf("trip_take_%d", tripID)),
			telegram.Btn("❌ Отказаться", fmt.Sprintf("trip_reject_%d", tripID)),
		),
		telegram.Row(telegram.Btn("🔙 Назад к списку", "menu_available_trips")),
	}
}

func statusMenuText(trip *models.Trip) string {
	return fmt.Sprintf("📍 ИЗМЕНИТЬ СТАТУС #%d\n\nТекущий статус: %s\n\nВыберите новый статус:", trip.ID, statusLine(trip.Status))
}

func statusMenuKeyboard(tripID int64) telegram.Keyboard {
	return telegram.Keyboard{
		telegram.Row(
			telegram.Btn("🚗 В работе", fmt.Sprintf("status_inprogress_%d", tripID)),
			telegram.Btn("✅ Выполнена", fmt.Sprintf("status_completed_%d", tripID)),
		),
		telegram.Row(
			telegram.Btn("📅 Перенесена", fmt.Sprintf("status_postponed_%d", tripID)),
			telegram.Btn("❌ Отклонить", fmt.Sprintf("status_rejected_%d", tripID)),
		),
		telegram.Row(telegram.Btn("🔙 Назад", fmt.Sprintf("trip_details_%d", tripID))),
	}
}

func tripManagementText(trip *models.Trip) string {
	var sb strings.Builder
	if trip.Status == models.TripStatusCompleted {
		fmt.Fprintf(&sb, "✅ ЗАЯВКА ВЫПОЛНЕНА #%d\n\n📋 Детали:\n", trip.ID)
	} else {
		fmt.Fprintf(&sb, "✅ ВАША ЗАЯВКА #%d\n\n📋 Детали:\n", trip.ID)
	}
	field(&sb, "• ", "Название", trip.Name)
	field(&sb, "• ", "Адрес", trip.Address)
	field(&sb, "• ", "Клиент", trip.ClientName)
	field(&sb, "• ", "Телефон", trip.ClientPhone)
	if trip.HasWaybill {
		sb.WriteString("• Путевой лист: 📎 прикреплен\n")
	}
	if trip.Status == models.TripStatusCompleted {
		sb.WriteString("\n🎉 Заявка успешно завершена!")
	} else {
		fmt.Fprintf(&sb, "\n🚦 Текущий статус: %s", statusLine(trip.Status))
	}
	return sb.String()
}

func tripManagementKeyboard(trip *models.Trip) telegram.Keyboard {
	if trip.Status == models.TripStatusCompleted {
		return telegram.Keyboard{
			telegram.Row(telegram.Btn("📄 Прикрепить путевой лист", fmt.Sprintf("waybill_attach_%d", trip.ID))),
			telegram.Row(telegram.Btn("📊 К списку заявок", "menu_active_trips")),
		}
	}
	return telegram.Keyboard{
		telegram.Row(
			telegram.Btn("📄 Путевой лист", fmt.Sprintf("waybill_attach_%d", trip.ID)),
			telegram.Btn("📍 Изменить статус", fmt.Sprintf("status_menu_%d", trip.ID)),
		),
		telegram.Row(telegram.Btn("🔄 Обновить", fmt.Sprintf("menu_refresh_%d", trip.ID))),
	}
}

func (b *Bot) showTripManagement(ctx context.Context, trip *models.Trip, chatID int64) error {
	return b.send(ctx, chatID, tripManagementText(trip), &telegram.SendOptions{Keyboard: tripManagementKeyboard(trip)})
}
