package main

import (
	"fmt"

	"github.com/fwojciec/revex"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Run executes the rules show command.
func (c *RulesShowCmd) Run(deps *Dependencies) error {
	rs, err := deps.RuleSets.FindRuleSet(deps.Ctx, c.Host, 0)
	if err != nil {
		if revex.ErrorCode(err) == revex.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: no rules cached for %q\n", c.Host)
		} else {
			fmt.Fprintf(deps.Stderr, "error: %s\n", revex.ErrorMessage(err))
		}
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(deps.Stdout)
	t.AppendHeader(table.Row{"Field", "Locator"})
	if rs.Container != "" {
		t.AppendRow(table.Row{"container", rs.Container})
	}
	for _, f := range revex.Fields {
		t.AppendRow(table.Row{f, rs.Locator(f)})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}

// Run executes the rules forget command.
func (c *RulesForgetCmd) Run(deps *Dependencies) error {
	if err := deps.RuleSets.DeleteRuleSet(deps.Ctx, c.Host); err != nil {
		if revex.ErrorCode(err) == revex.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: no rules cached for %q\n", c.Host)
		} else {
			fmt.Fprintf(deps.Stderr, "error: %s\n", revex.ErrorMessage(err))
		}
		return err
	}

	fmt.Fprintf(deps.Stdout, "Forgot rules for %q\n", c.Host)
	return nil
}
