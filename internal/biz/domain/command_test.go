package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Command
		ok   bool
	}{
		{"plain", "/start", Command{Name: "start", Args: []string{}}, true},
		{"with bot", "/id@relay_bot", Command{Name: "id", Bot: "relay_bot", Args: []string{}}, true},
		{"with args", "/add  Team   News ", Command{Name: "add", Args: []string{"Team", "News"}}, true},
		{"mixed case", "/Start", Command{Name: "start", Args: []string{}}, true},
		{"upper case with bot", "/ID@Relay_Bot", Command{Name: "id", Bot: "Relay_Bot", Args: []string{}}, true},
		{"args keep case", "/ADD Team News", Command{Name: "add", Args: []string{"Team", "News"}}, true},
		{"not a command", "hello /start", Command{}, false},
		{"slash only", "/", Command{}, false},
		{"bot only", "/@relay_bot", Command{}, false},
		{"empty", "", Command{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCommand(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCommand_ArgText(t *testing.T) {
	cmd, ok := ParseCommand("/add my  news\tfeed")
	assert.True(t, ok)
	assert.Equal(t, "my news feed", cmd.ArgText())
}

func TestChannelNameFromCommand(t *testing.T) {
	assert.Equal(t, "news", ChannelNameFromCommand("/news"))
	assert.Equal(t, "news", ChannelNameFromCommand("/news@relay_bot"))
	assert.Equal(t, "news", ChannelNameFromCommand("/news please"))
	assert.Equal(t, "", ChannelNameFromCommand("news"))
	assert.Equal(t, "", ChannelNameFromCommand("/"))
}

func TestIsBuiltinCommand(t *testing.T) {
	assert.True(t, IsBuiltinCommand("start"))
	assert.True(t, IsBuiltinCommand("add"))
	assert.True(t, IsBuiltinCommand("id"))
	assert.True(t, IsBuiltinCommand("Start"))
	assert.False(t, IsBuiltinCommand("news"))
}

func TestChatTypeOf(t *testing.T) {
	assert.Equal(t, ChatTypePrivate, ChatTypeOf(5))
	assert.Equal(t, ChatTypeGroup, ChatTypeOf(-5))
	assert.Equal(t, ChatTypeUnknown, ChatTypeOf(0))
}

func TestContentType_IsRelayable(t *testing.T) {
	for _, c := range []ContentType{ContentText, ContentAnimation, ContentDocument, ContentAudio, ContentPhoto} {
		assert.True(t, c.IsRelayable(), string(c))
	}
	assert.False(t, ContentOther.IsRelayable())
}
