package bot

import (
	"testing"

	"github.com/ad/fitness-challenge-bot/internal/domain"
	"github.com/ad/fitness-challenge-bot/internal/locale"
)

func testLocalizer(t *testing.T) locale.Localizer {
	t.Helper()

	loc, err := locale.NewLocalizer(locale.NewLocale(locale.Ru))
	if err != nil {
		t.Fatalf("Failed to create localizer: %v", err)
	}
	return loc
}

func TestIsCancel(t *testing.T) {
	loc := testLocalizer(t)

	tests := []struct {
		input string
		want  bool
	}{
		{"/cancel", true},
		{"❌ Отменить", true},
		{"Отменить", true},
		{"🏠 Главное меню", true},
		{"  /cancel  ", true},
		{loc.MustLocalize(locale.ButtonCancel), true},
		{loc.MustLocalize(locale.ButtonMainMenu), true},
		{"отмена", false},
		{"hello", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsCancel(loc, tt.input); got != tt.want {
			t.Errorf("IsCancel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestMainMenuKeyboard(t *testing.T) {
	loc := testLocalizer(t)

	registered := MainMenuKeyboard(loc, true)
	if len(registered.Keyboard) != 3 {
		t.Errorf("registered menu rows = %d, want 3", len(registered.Keyboard))
	}
	if registered.Keyboard[0][0].Text != loc.MustLocalize(locale.ButtonSubmit) {
		t.Errorf("first button = %q, want submit", registered.Keyboard[0][0].Text)
	}

	unregistered := MainMenuKeyboard(loc, false)
	if len(unregistered.Keyboard) != 2 {
		t.Errorf("unregistered menu rows = %d, want 2", len(unregistered.Keyboard))
	}
	if unregistered.Keyboard[0][0].Text != loc.MustLocalize(locale.ButtonRegister) {
		t.Errorf("first button = %q, want register", unregistered.Keyboard[0][0].Text)
	}
}

func TestPhoneKeyboardRequestsContact(t *testing.T) {
	loc := testLocalizer(t)

	kb := PhoneKeyboard(loc)
	if !kb.Keyboard[0][0].RequestContact {
		t.Error("phone button should request the contact")
	}
}

func TestChallengeLabel(t *testing.T) {
	loc := testLocalizer(t)

	c := &domain.Challenge{Name: "Летний вызов", Type: domain.ChallengeTypePushUps}
	want := loc.MustLocalize(locale.ChallengePushUps) + " Летний вызов"
	if got := ChallengeLabel(loc, c); got != want {
		t.Errorf("ChallengeLabel() = %q, want %q", got, want)
	}
}

func TestTypeLabelFallback(t *testing.T) {
	loc := testLocalizer(t)

	if got := TypeLabel(loc, domain.ChallengeType("swimming")); got != "swimming" {
		t.Errorf("TypeLabel() = %q, want raw type as fallback", got)
	}
}

func TestChallengeKeyboardEndsWithCancel(t *testing.T) {
	loc := testLocalizer(t)

	challenges := []*domain.Challenge{
		{Name: "A", Type: domain.ChallengeTypePushUps},
		{Name: "B", Type: domain.ChallengeTypeSteps},
	}
	kb := ChallengeKeyboard(loc, challenges)
	if len(kb.Keyboard) != 3 {
		t.Fatalf("rows = %d, want 3", len(kb.Keyboard))
	}
	lastRow := kb.Keyboard[len(kb.Keyboard)-1]
	if lastRow[0].Text != loc.MustLocalize(locale.ButtonCancel) {
		t.Errorf("last button = %q, want cancel", lastRow[0].Text)
	}
}
