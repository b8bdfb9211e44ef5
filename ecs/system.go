package ecs

// System represents a behavior that runs once per frame.
// Systems can include Query and View fields, which the Scheduler
// initializes on registration and refreshes before every Execute.
// Structural changes (creating or removing entities) go through
// frame.Commands.
type System interface {
	Execute(frame *UpdateFrame)
}
