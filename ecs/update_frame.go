package ecs

// UpdateFrame is handed to every system for one scheduler pass.
type UpdateFrame struct {
	DeltaTime float64
	Commands  *Commands
	Directory *Directory
}

func newUpdateFrame(dt float64, dir *Directory) *UpdateFrame {
	return &UpdateFrame{
		DeltaTime: dt,
		Commands:  NewCommands(),
		Directory: dir,
	}
}
