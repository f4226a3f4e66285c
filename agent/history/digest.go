package history

import (
	"strings"

	statex "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/state"
)

const (
	maxDigestTurns = 6
	maxTurnRunes   = 200
)

// Digest renders a compact transcript of the turns before the latest one,
// newest last. It returns "" when the thread holds fewer than two turns, so
// a first message is classified without any history block.
func Digest(turns []statex.Turn) string {
	if len(turns) < 2 {
		return ""
	}

	prior := turns[:len(turns)-1]
	if len(prior) > maxDigestTurns {
		prior = prior[len(prior)-maxDigestTurns:]
	}

	lines := make([]string, 0, len(prior))
	for _, turn := range prior {
		lines = append(lines, roleLabel(turn.Role)+truncate(turn.Text))
	}
	return strings.Join(lines, "\n")
}

func roleLabel(role statex.Role) string {
	if role == statex.RoleAssistant {
		return "Assistant: "
	}
	return "User: "
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxTurnRunes {
		return text
	}
	return string(runes[:maxTurnRunes]) + "..."
}
