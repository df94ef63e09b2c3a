package bot

import (
    "fmt"

    "github.com/go-telegram/bot/models"
)

// Reply-keyboard captions doubling as commands.
const (
    btnFoods   = "🍔 Foods"
    btnCart    = "🧺 My cart"
    btnOrders  = "📦 My orders"
    btnSave    = "Yes, save"
    btnCancel  = "Cancel"
    btnEdit    = "Edit"
    btnContact = "Share phone number"
)

func mainKeyboard(webAppURL string) models.ReplyMarkup {
    return &models.ReplyKeyboardMarkup{
        Keyboard: [][]models.KeyboardButton{
            {{Text: btnFoods, WebApp: &models.WebAppInfo{URL: webAppURL}}, {Text: btnCart}},
            {{Text: btnOrders}},
        },
        ResizeKeyboard: true,
    }
}

func removeKeyboard() models.ReplyMarkup {
    return &models.ReplyKeyboardRemove{RemoveKeyboard: true}
}

func contactKeyboard() models.ReplyMarkup {
    return &models.ReplyKeyboardMarkup{
        Keyboard:       [][]models.KeyboardButton{{{Text: btnContact, RequestContact: true}}},
        ResizeKeyboard: true,
    }
}

func confirmSaveKeyboard() models.ReplyMarkup {
    return &models.ReplyKeyboardMarkup{
        Keyboard:       [][]models.KeyboardButton{{{Text: btnSave}, {Text: btnCancel}}, {{Text: btnEdit}}},
        ResizeKeyboard: true,
    }
}

func inline(rows ...[]models.InlineKeyboardButton) models.ReplyMarkup {
    return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func button(text, data string) models.InlineKeyboardButton {
    return models.InlineKeyboardButton{Text: text, CallbackData: data}
}

func genderKeyboard() models.ReplyMarkup {
    return inline([]models.InlineKeyboardButton{button("Male", "gender:MALE"), button("Female", "gender:FEMALE")})
}

func deleteUserKeyboard() models.ReplyMarkup {
    return inline([]models.InlineKeyboardButton{button("Delete my account", "delete_user")})
}

func confirmDeleteKeyboard() models.ReplyMarkup {
    return inline([]models.InlineKeyboardButton{button("Yes", "delete_user:yes"), button("Changed my mind", "delete_user:no")})
}

func cartAddedKeyboard() models.ReplyMarkup {
    return inline([]models.InlineKeyboardButton{button("View cart", "view_cart"), button("Buy now", "buy")})
}

// pager renders Prev / "page/total" / Next for a 1-based page.  prefix is
// the callback prefix the page number is appended to.
func pager(prefix string, page, total int) []models.InlineKeyboardButton {
    return []models.InlineKeyboardButton{
        button("◀ Prev", fmt.Sprintf("%s:%d", prefix, page-1)),
        button(fmt.Sprintf("%d/%d", page, total), fmt.Sprintf("count:%d:%d", total, page)),
        button("Next ▶", fmt.Sprintf("%s:%d", prefix, page+1)),
    }
}

func cartKeyboard(page, total int) models.ReplyMarkup {
    rows := [][]models.InlineKeyboardButton{{
        button("-", fmt.Sprintf("qty:dec:%d", page)),
        button("+", fmt.Sprintf("qty:inc:%d", page)),
        button("Buy", "buy"),
    }}
    if total > 1 {
        rows = append(rows, pager("cart", page, total))
    }
    rows = append(rows, []models.InlineKeyboardButton{button("Remove", fmt.Sprintf("cart_del:%d", page))})
    return inline(rows...)
}

func orderKeyboard(orderID uint64, page, total int) models.ReplyMarkup {
    var rows [][]models.InlineKeyboardButton
    if total > 1 {
        rows = append(rows, pager("order", page, total))
    }
    rows = append(rows, []models.InlineKeyboardButton{button("Items", fmt.Sprintf("items:%d:1", orderID))})
    return inline(rows...)
}

func orderItemKeyboard(orderID uint64, page, total int) models.ReplyMarkup {
    if total <= 1 {
        return nil
    }
    return inline(pager(fmt.Sprintf("item:%d", orderID), page, total))
}
