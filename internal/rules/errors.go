package rules

import "fmt"

// MalformedRuleError reports a catalogue that fails validation. No part of a
// malformed catalogue is ever used.
type MalformedRuleError struct {
	Table  string
	RuleID string
	Reason string
}

func (e *MalformedRuleError) Error() string {
	if e.RuleID == "" {
		return fmt.Sprintf("malformed rule table %s: %s", e.Table, e.Reason)
	}
	return fmt.Sprintf("malformed rule %s in table %s: %s", e.RuleID, e.Table, e.Reason)
}

func malformed(table, id, format string, args ...any) error {
	return &MalformedRuleError{Table: table, RuleID: id, Reason: fmt.Sprintf(format, args...)}
}
