package notify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Bernadoadk/qr-flow-reward-service/internal/domain"
)

// eventVars builds the fixed substitution set for an event and recipient.
func eventVars(event *domain.RewardEvent, recipient domain.Recipient) map[string]string {
	t := event.Template
	title := t.Value.Title
	if title == "" {
		title = fmt.Sprintf("%s %s reward", capitalize(string(t.Tier)), strings.ReplaceAll(string(t.RewardType), "_", " "))
	}
	vars := map[string]string{
		"customer_name":      recipient.Name,
		"reward_title":       title,
		"reward_description": t.Value.Description,
		"tier":               string(t.Tier),
		"reward_type":        string(t.RewardType),
	}
	if event.Kind == domain.KindExpiryWarning {
		vars["days_left"] = strconv.Itoa(event.DaysUntilExpiry)
	}
	return vars
}

// capitalize upper-cases the first byte; tier names are single ASCII words.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// render substitutes {{placeholder}} occurrences; unknown placeholders are
// left untouched.
func render(tpl MessageTemplate, vars map[string]string) domain.RenderedMessage {
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{{"+name+"}}", value)
	}
	r := strings.NewReplacer(pairs...)
	return domain.RenderedMessage{
		Subject: r.Replace(tpl.Subject),
		Body:    r.Replace(tpl.Body),
	}
}
