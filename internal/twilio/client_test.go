package twilio

import (
	"strings"
	"testing"
)

func TestNormalizeWhatsAppAddress(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"+15551234567":          "whatsapp:+15551234567",
		"15551234567":           "whatsapp:+15551234567",
		"whatsapp:+15551234567": "whatsapp:+15551234567",
		"  ":                    "",
	}
	for input, want := range cases {
		if got := NormalizeWhatsAppAddress(input); got != want {
			t.Fatalf("NormalizeWhatsAppAddress(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSplitMessage(t *testing.T) {
	t.Parallel()

	if parts := SplitMessage("short", 10); len(parts) != 1 || parts[0] != "short" {
		t.Fatalf("unexpected split of short message: %v", parts)
	}

	body := strings.Repeat("line of text\n", 20)
	parts := SplitMessage(body, 50)
	if len(parts) < 2 {
		t.Fatalf("expected multiple parts, got %d", len(parts))
	}
	for _, part := range parts {
		if len([]rune(part)) > 50 {
			t.Fatalf("part exceeds limit: %q", part)
		}
	}
	if strings.ReplaceAll(strings.Join(parts, ""), "\n", "") != strings.ReplaceAll(body, "\n", "") {
		t.Fatalf("split lost content")
	}

	unbroken := strings.Repeat("x", 25)
	parts = SplitMessage(unbroken, 10)
	if len(parts) != 3 || parts[2] != "xxxxx" {
		t.Fatalf("unexpected hard split: %v", parts)
	}
}

func TestSendWithoutClient(t *testing.T) {
	t.Parallel()

	var c *Client
	if err := c.SendWhatsAppMessage("+1555", "hi"); err == nil {
		t.Fatalf("expected error from nil client")
	}
	if err := New("sid", "token", "", nil).SendWhatsAppMessage("+1555", "hi"); err == nil {
		t.Fatalf("expected error without sender number")
	}
}
