package bot

import (
    "context"
    "errors"
    "fmt"
    "strings"

    "github.com/go-telegram/bot/models"

    "github.com/iliyamo/gusto-eats/internal/model"
    "github.com/iliyamo/gusto-eats/internal/repository"
    "github.com/iliyamo/gusto-eats/internal/utils"
)

const (
    msgNotRegistered = "You are not registered yet. Send /register to sign up."
    msgPasswordRules = "Choose a password: at least 6 characters with an upper-case letter, a lower-case letter and a digit. You can use it to sign in on the website too."
)

func (b *Bot) myInfo(ctx context.Context, chatID int64) {
    u, err := b.Users.GetByChatID(ctx, chatID)
    if errors.Is(err, repository.ErrNotFound) {
        b.send(ctx, chatID, msgNotRegistered, mainKeyboard(b.WebAppURL))
        return
    }
    if err != nil {
        b.internalError(ctx, chatID, err)
        return
    }
    text := fmt.Sprintf("Your info:\nFirst name: %s\nLast name: %s\nPhone: %s\nGender: %s",
        u.FirstName, u.LastName, u.PhoneNumber, u.Gender)
    b.send(ctx, chatID, text, deleteUserKeyboard())
}

func (b *Bot) startRegister(ctx context.Context, chatID int64, s *Session) {
    _, err := b.Users.GetByChatID(ctx, chatID)
    switch {
    case err == nil:
        b.send(ctx, chatID, "You are already registered.", mainKeyboard(b.WebAppURL))
        return
    case !errors.Is(err, repository.ErrNotFound):
        b.internalError(ctx, chatID, err)
        return
    }
    s.reset()
    s.State = stateFirstName
    b.send(ctx, chatID, "Enter your first name.", removeKeyboard())
}

// continueFlow feeds a plain message into the active conversation.  It
// reports false when no flow is in progress.
func (b *Bot) continueFlow(ctx context.Context, m *models.Message, s *Session) bool {
    chatID, text := m.Chat.ID, strings.TrimSpace(m.Text)
    switch s.State {
    case stateFirstName:
        if text == "" {
            b.send(ctx, chatID, "Please enter your first name.", nil)
            return true
        }
        s.Draft.FirstName = text
        s.State = stateLastName
        b.send(ctx, chatID, "Enter your last name.", nil)
    case stateLastName:
        if text == "" {
            b.send(ctx, chatID, "Please enter your last name.", nil)
            return true
        }
        s.Draft.LastName = text
        s.State = stateGender
        b.send(ctx, chatID, "Choose your gender.", genderKeyboard())
    case stateGender:
        b.send(ctx, chatID, "Please choose your gender with the buttons.", genderKeyboard())
    case statePassword:
        // the password should not stay in the chat history
        b.deleteMessage(ctx, chatID, m.ID)
        if !utils.StrongPassword(text) {
            b.send(ctx, chatID, "The password is too weak. "+msgPasswordRules, nil)
            return true
        }
        s.Draft.Password = text
        s.State = statePhone
        b.send(ctx, chatID, "Enter your phone number (998xxxxxxxxx) or share your contact.", contactKeyboard())
    case statePhone:
        b.registerPhone(ctx, m, s)
    case stateConfirm:
        b.confirmRegistration(ctx, chatID, s, text)
    case stateDeleteConfirm:
        b.send(ctx, chatID, "Please answer with the buttons above.", nil)
    case stateDeletePassword:
        b.deleteAccount(ctx, m, s)
    default:
        return false
    }
    return true
}

func (b *Bot) registerGender(ctx context.Context, chatID int64, msgID int, s *Session, args []string) string {
    if s.State != stateGender || len(args) == 0 {
        return "Registration is not in progress"
    }
    g := args[0]
    if g != model.GenderMale && g != model.GenderFemale {
        return "Unknown option"
    }
    b.deleteMessage(ctx, chatID, msgID)
    s.Draft.Gender = g
    s.State = statePassword
    b.send(ctx, chatID, msgPasswordRules, removeKeyboard())
    return ""
}

func (b *Bot) registerPhone(ctx context.Context, m *models.Message, s *Session) {
    chatID := m.Chat.ID
    phone := m.Text
    if c := m.Contact; c != nil {
        if m.From != nil && c.UserID != 0 && c.UserID != m.From.ID {
            b.send(ctx, chatID, "Please share your own contact.", contactKeyboard())
            return
        }
        phone = c.PhoneNumber
    }
    phone = utils.NormalizePhone(phone)
    if !utils.ValidPhone(phone) {
        b.send(ctx, chatID, "The phone number is not valid. Example: 998901234567", contactKeyboard())
        return
    }
    s.Draft.Phone = phone
    s.State = stateConfirm
    d := s.Draft
    text := fmt.Sprintf("First name: %s\nLast name: %s\nGender: %s\nPhone: %s\n\nSave your data?",
        d.FirstName, d.LastName, d.Gender, d.Phone)
    b.send(ctx, chatID, text, confirmSaveKeyboard())
}

func (b *Bot) confirmRegistration(ctx context.Context, chatID int64, s *Session, text string) {
    switch text {
    case btnSave:
        b.saveRegistration(ctx, chatID, s)
    case btnCancel:
        s.reset()
        b.send(ctx, chatID, "Registration cancelled.", mainKeyboard(b.WebAppURL))
    case btnEdit:
        s.Draft = Draft{}
        s.State = stateFirstName
        b.send(ctx, chatID, "Enter your first name.", removeKeyboard())
    default:
        b.send(ctx, chatID, "Please choose one of the options.", confirmSaveKeyboard())
    }
}

func (b *Bot) saveRegistration(ctx context.Context, chatID int64, s *Session) {
    d := s.Draft
    chat := chatID
    s.reset()
    _, err := b.Users.Create(ctx, repository.NewUser{
        ChatID:      &chat,
        PhoneNumber: d.Phone,
        Password:    d.Password,
        FirstName:   d.FirstName,
        LastName:    d.LastName,
        Gender:      d.Gender,
    }, b.BcryptCost)
    switch {
    case errors.Is(err, repository.ErrPhoneExists):
        b.send(ctx, chatID, "This phone number is already registered.", mainKeyboard(b.WebAppURL))
    case errors.Is(err, repository.ErrChatLinked):
        b.send(ctx, chatID, "You are already registered.", mainKeyboard(b.WebAppURL))
    case err != nil:
        b.internalError(ctx, chatID, err)
    default:
        b.send(ctx, chatID, "You have registered successfully.", mainKeyboard(b.WebAppURL))
    }
}

// deleteUserCallback handles "delete_user" (ask) and "delete_user:yes|no".
func (b *Bot) deleteUserCallback(ctx context.Context, chatID int64, msgID int, s *Session, args []string) string {
    if len(args) == 0 {
        if _, err := b.Users.GetByChatID(ctx, chatID); err != nil {
            s.reset()
            return "User not found"
        }
        b.deleteMessage(ctx, chatID, msgID)
        s.reset()
        s.State = stateDeleteConfirm
        b.send(ctx, chatID, "Do you really want to delete your account? Your order history will be deleted too.", confirmDeleteKeyboard())
        return ""
    }
    if s.State != stateDeleteConfirm {
        return "Nothing to confirm"
    }
    b.deleteMessage(ctx, chatID, msgID)
    if args[0] != "yes" {
        s.reset()
        b.send(ctx, chatID, "Nothing was deleted.", mainKeyboard(b.WebAppURL))
        return ""
    }
    s.State = stateDeletePassword
    b.send(ctx, chatID, "Enter your password.", removeKeyboard())
    return ""
}

func (b *Bot) deleteAccount(ctx context.Context, m *models.Message, s *Session) {
    chatID := m.Chat.ID
    b.deleteMessage(ctx, chatID, m.ID)
    s.reset()

    u, err := b.Users.GetByChatID(ctx, chatID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            b.send(ctx, chatID, "User not found.", mainKeyboard(b.WebAppURL))
            return
        }
        b.internalError(ctx, chatID, err)
        return
    }
    if !utils.VerifyPassword(u.PasswordHash, strings.TrimSpace(m.Text)) {
        b.send(ctx, chatID, "Wrong password.", mainKeyboard(b.WebAppURL))
        return
    }
    if err := b.Users.Delete(ctx, u.ID); err != nil {
        b.internalError(ctx, chatID, err)
        return
    }
    *s = Session{}
    b.send(ctx, chatID, "Your data has been deleted.", mainKeyboard(b.WebAppURL))
}
