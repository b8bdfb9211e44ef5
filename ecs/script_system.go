package ecs

import "go.uber.org/zap"

// ScriptSystem runs every script behavior once per frame. A failing
// behavior is logged and counted; it does not stop the others.
type ScriptSystem struct {
	Scripts Query[Script]
	Failed  int
}

func (s *ScriptSystem) Execute(frame *UpdateFrame) {
	for id, script := range s.Scripts.Iter() {
		if err := script.Behavior.Update(frame, id); err != nil {
			s.Failed++
			frame.Directory.Logger().Warn("script update failed",
				zap.Stringer("id", id),
				zap.String("script", script.Name),
				zap.Error(err))
		}
	}
}
