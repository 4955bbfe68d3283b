package main

import (
	"fmt"

	"github.com/fwojciec/harvest"
)

// Run executes the add command.
func (c *AddCmd) Run(deps *Dependencies) error {
	target := &harvest.Target{
		Name:     c.Name,
		URL:      c.URL,
		Selector: c.Selector,
		Mode:     harvest.RenderMode(c.Mode),
		Category: c.Category,
		Active:   !c.Inactive,
	}

	if err := deps.Targets.CreateTarget(deps.Ctx, target); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Added target %q (%s)\n", target.Name, target.ID)
	return nil
}

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	var filter harvest.TargetFilter
	if c.Active {
		active := true
		filter.Active = &active
	}
	if c.Category != "" {
		filter.Category = &c.Category
	}

	targets, err := deps.Targets.FindTargets(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	if len(targets) == 0 {
		fmt.Fprintln(deps.Stdout, "No targets found. Use 'harvest add' to create one.")
		return nil
	}

	for _, t := range targets {
		state := "active"
		if !t.Active {
			state = "inactive"
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %s  %s  %s  %q  %s\n", t.ID, t.Name, t.Mode, t.Category, state, t.Selector, t.URL)
	}
	return nil
}

// Run executes the update command.
func (c *UpdateCmd) Run(deps *Dependencies) error {
	var upd harvest.TargetUpdate
	if c.Name != "" {
		upd.Name = &c.Name
	}
	if c.URL != "" {
		upd.URL = &c.URL
	}
	if c.Selector != "" {
		upd.Selector = &c.Selector
	}
	if c.Mode != "" {
		mode, err := harvest.ParseRenderMode(c.Mode)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
			return err
		}
		upd.Mode = &mode
	}
	if c.Category != "" {
		upd.Category = &c.Category
	}
	if c.Enable || c.Disable {
		active := c.Enable
		upd.Active = &active
	}

	target, err := deps.Targets.UpdateTarget(deps.Ctx, c.ID, upd)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Updated target %q (%s)\n", target.Name, target.ID)
	return nil
}

// Run executes the delete command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return harvest.Errorf(harvest.EINVALID, "use --force to confirm deletion")
	}

	target, err := deps.Targets.FindTargetByID(deps.Ctx, c.ID)
	if err != nil {
		if harvest.ErrorCode(err) == harvest.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: target %q not found. Use 'harvest list' to see available targets.\n", c.ID)
		} else {
			fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		}
		return err
	}

	if err := deps.Targets.DeleteTarget(deps.Ctx, target.ID); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Deleted target %q\n", target.Name)
	return nil
}
