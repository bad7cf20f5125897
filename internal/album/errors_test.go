package album

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mmynk/familyalbum/internal/auth"
)

func TestAlert(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"login", auth.ErrInvalidCredentials, "Нэвтрэх нэр эсвэл нууц үг буруу байна"},
		{"mismatch", auth.ErrPasswordMismatch, "Нууц үг таарахгүй байна"},
		{"taken", auth.ErrUsernameTaken, "Энэ нэвтрэх нэр аль хэдийн бүртгэгдсэн байна"},
		{"not member", ErrNotGroupMember, "Та энэ бүлгийн гишүүн биш байна!"},
		{"wrong passcode", ErrWrongPasscode, "Буруу нууц код!"},
		{"lock", ErrLockMembersOnly, "Зөвхөн бүлгийн гишүүд түгжээ солих боломжтой!"},
		{"wrapped sentinel", fmt.Errorf("select: %w", ErrPhoneNotFound), "Энэ утасны дугаараар бүртгэгдсэн хэрэглэгч олдсонгүй"},
		{"write", writeErr(OpCreateGroup, errors.New("connection reset")), "Бүлэг үүсгэхэд алдаа гарлаа"},
		{"wrapped write", fmt.Errorf("failed to create user: %w", writeErr(OpRegister, errors.New("boom"))), "Бүртгэл үүсгэхэд алдаа гарлаа"},
		{"no group", ErrNoGroupSelected, "Бүлэг сонгогдоогүй байна"},
		{"unknown", errors.New("boom"), alertGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Alert(tt.err); got != tt.want {
				t.Errorf("Alert() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteError_Unwrap(t *testing.T) {
	cause := errors.New("unavailable")
	err := writeErr(OpAddPhoto, cause)

	if !errors.Is(err, cause) {
		t.Error("WriteError should unwrap to its cause")
	}
	if err.Error() != "add photo: unavailable" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestAlert_FirstSentinelWins(t *testing.T) {
	err := errors.Join(ErrNotGroupMember, ErrWrongPasscode)

	// Repeated calls must agree; the earlier table entry takes precedence.
	for i := 0; i < 50; i++ {
		if got := Alert(err); got != "Буруу нууц код!" {
			t.Fatalf("call %d: Alert() = %q", i, got)
		}
	}
}
