package album

import (
	"errors"

	"github.com/mmynk/familyalbum/internal/auth"
)

var (
	// ErrNotLoggedIn is returned by handlers that need a current user.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrRequiredField is returned when a required form field is empty.
	ErrRequiredField = errors.New("required field is empty")
	// ErrPhoneNotFound is returned when no user has the given phone number.
	ErrPhoneNotFound = errors.New("no user with this phone number")
	// ErrWrongVerificationCode is returned when the recovery code does not match.
	ErrWrongVerificationCode = errors.New("wrong verification code")
	// ErrRecoveryStep is returned when a recovery step is called out of order.
	ErrRecoveryStep = errors.New("recovery step out of order")
	// ErrLockMembersOnly is returned when a non-member toggles a group lock.
	ErrLockMembersOnly = errors.New("only group members can toggle the lock")
	// ErrPasscodeRequired is returned when a locked group needs the passcode.
	ErrPasscodeRequired = errors.New("group is locked")
	// ErrNoPendingGroup is returned when a passcode is submitted with no prompt open.
	ErrNoPendingGroup = errors.New("no locked group selected")
	// ErrWrongPasscode is returned when the submitted passcode does not match.
	ErrWrongPasscode = errors.New("wrong passcode")
	// ErrNotGroupMember is returned when the passcode is right but the user is not a member.
	ErrNotGroupMember = errors.New("not a member of the group")
	// ErrGroupNotFound is returned when a group id is not in the cache.
	ErrGroupNotFound = errors.New("group not found")
	// ErrEventNotFound is returned when an event id is not in the cache.
	ErrEventNotFound = errors.New("event not found")
	// ErrNoGroupSelected is returned by event handlers outside an open group.
	ErrNoGroupSelected = errors.New("no group selected")
	// ErrNoEventSelected is returned by album handlers outside an event.
	ErrNoEventSelected = errors.New("no event selected")
	// ErrUserNotFound is returned when a username is not in the cache.
	ErrUserNotFound = errors.New("user not found")
	// ErrAlreadyMember is returned when adding a user already on the event.
	ErrAlreadyMember = errors.New("user is already an event member")
	// ErrNotEventMember is returned when removing a user not on the event.
	ErrNotEventMember = errors.New("user is not an event member")
)

// Op names a store write made by a handler.
type Op string

const (
	OpRegister      Op = "register"
	OpResetCred     Op = "reset credential"
	OpCreateGroup   Op = "create group"
	OpDeleteGroup   Op = "delete group"
	OpToggleLock    Op = "toggle lock"
	OpCreateEvent   Op = "create event"
	OpDeleteEvent   Op = "delete event"
	OpAddPhoto      Op = "add photo"
	OpDeletePhoto   Op = "delete photo"
	OpAddMember     Op = "add member"
	OpRemoveMember  Op = "remove member"
	OpUpdateCounter Op = "update group counters"
)

// WriteError is a failed store write. Local state keeps the attempted change.
type WriteError struct {
	Op  Op
	Err error
}

func (e *WriteError) Error() string {
	return string(e.Op) + ": " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func writeErr(op Op, err error) error {
	return &WriteError{Op: op, Err: err}
}

// Notices shown after successful actions.
const (
	NoticeRegistered = "Амжилттай бүртгэгдлээ!"
	NoticeChanged    = "Амжилттай солигдлоо"
	noticeCodeSent   = "Баталгаажуулах код илгээгдлээ: "
)

const alertGeneric = "Алдаа гарлаа"

// alerts is checked in order; the first sentinel err matches wins.
var alerts = []struct {
	err error
	msg string
}{
	{auth.ErrInvalidCredentials, "Нэвтрэх нэр эсвэл нууц үг буруу байна"},
	{auth.ErrPasswordMismatch, "Нууц үг таарахгүй байна"},
	{auth.ErrUsernameTaken, "Энэ нэвтрэх нэр аль хэдийн бүртгэгдсэн байна"},
	{auth.ErrMissingCredentials, "Нэвтрэх нэр болон нууц үгээ оруулна уу"},
	{ErrNotLoggedIn, "Эхлээд нэвтэрнэ үү"},
	{ErrRequiredField, "Шаардлагатай талбаруудыг бөглөнө үү"},
	{ErrPhoneNotFound, "Энэ утасны дугаараар бүртгэгдсэн хэрэглэгч олдсонгүй"},
	{ErrWrongVerificationCode, "Баталгаажуулах код буруу байна"},
	{ErrRecoveryStep, "Сэргээх алхам буруу байна"},
	{ErrLockMembersOnly, "Зөвхөн бүлгийн гишүүд түгжээ солих боломжтой!"},
	{ErrPasscodeRequired, "Энэ бүлэг түгжээтэй байна. Нууц кодоо оруулна уу"},
	{ErrNoPendingGroup, "Түгжээтэй бүлэг сонгогдоогүй байна"},
	{ErrWrongPasscode, "Буруу нууц код!"},
	{ErrNotGroupMember, "Та энэ бүлгийн гишүүн биш байна!"},
	{ErrGroupNotFound, "Бүлэг олдсонгүй"},
	{ErrNoGroupSelected, "Бүлэг сонгогдоогүй байна"},
	{ErrEventNotFound, "Арга хэмжээ олдсонгүй"},
	{ErrNoEventSelected, "Арга хэмжээ сонгогдоогүй байна"},
	{ErrUserNotFound, "Хэрэглэгч олдсонгүй"},
	{ErrAlreadyMember, "Энэ хэрэглэгч аль хэдийн гишүүн байна"},
	{ErrNotEventMember, "Энэ хэрэглэгч гишүүн биш байна"},
}

var writeAlerts = map[Op]string{
	OpRegister:      "Бүртгэл үүсгэхэд алдаа гарлаа",
	OpResetCred:     "Солиход алдаа гарлаа",
	OpCreateGroup:   "Бүлэг үүсгэхэд алдаа гарлаа",
	OpDeleteGroup:   "Бүлэг устгахад алдаа гарлаа",
	OpToggleLock:    "Түгжээ солихад алдаа гарлаа",
	OpCreateEvent:   "Арга хэмжээ үүсгэхэд алдаа гарлаа",
	OpDeleteEvent:   "Арга хэмжээ устгахад алдаа гарлаа",
	OpAddPhoto:      "Зураг нэмэхэд алдаа гарлаа",
	OpDeletePhoto:   "Зураг устгахад алдаа гарлаа",
	OpAddMember:     "Гишүүн нэмэхэд алдаа гарлаа",
	OpRemoveMember:  "Гишүүн хасахад алдаа гарлаа",
	OpUpdateCounter: "Бүлгийн мэдээлэл шинэчлэхэд алдаа гарлаа",
}

// Alert maps err to the message shown to the user.
// Write failures map by operation, domain errors by sentinel.
func Alert(err error) string {
	if err == nil {
		return ""
	}
	var we *WriteError
	if errors.As(err, &we) {
		if msg, ok := writeAlerts[we.Op]; ok {
			return msg
		}
	}
	for _, a := range alerts {
		if errors.Is(err, a.err) {
			return a.msg
		}
	}
	return alertGeneric
}
