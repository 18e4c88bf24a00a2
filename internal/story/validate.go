package story

import (
	"fmt"
	"sort"

	"github.com/talgya/ninth-gate/internal/gate"
)

// Issue is one problem found in a story asset.
type Issue struct {
	Scene   string
	Message string
}

func (i Issue) String() string {
	if i.Scene == "" {
		return i.Message
	}
	return fmt.Sprintf("%s: %s", i.Scene, i.Message)
}

// Validate checks that every choice leads somewhere the engine can show
// and that the scenes the resolver routes to on its own exist. Issues are
// sorted by scene, then message.
func (s *Story) Validate() []Issue {
	var issues []Issue

	if _, ok := s.Scenes[s.Start]; !ok {
		issues = append(issues, Issue{Message: fmt.Sprintf("start scene %q is not defined", s.Start)})
	}

	for _, id := range gate.OutputScenes {
		if _, ok := s.Scenes[id]; !ok {
			issues = append(issues, Issue{Message: fmt.Sprintf("resolver output scene %q is not defined", id)})
		}
	}
	for _, id := range gate.WorkPool() {
		if _, ok := s.Scenes[id]; !ok {
			issues = append(issues, Issue{Message: fmt.Sprintf("work scene %q is not defined", id)})
		}
	}

	for id, sc := range s.Scenes {
		if gate.IsSystemScene(id) {
			issues = append(issues, Issue{Scene: id, Message: "system identifiers cannot be story scenes"})
		}
		for i, c := range sc.Choices {
			switch {
			case c.Next == "":
				issues = append(issues, Issue{Scene: id, Message: fmt.Sprintf("choice %d has no next scene", i+1)})
			case gate.IsSystemScene(c.Next):
			case s.Scenes[c.Next] == nil:
				issues = append(issues, Issue{Scene: id, Message: fmt.Sprintf("choice %d leads to unknown scene %q", i+1, c.Next)})
			}
			if c.Label == "" {
				issues = append(issues, Issue{Scene: id, Message: fmt.Sprintf("choice %d has no label", i+1)})
			}
		}
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Scene != issues[j].Scene {
			return issues[i].Scene < issues[j].Scene
		}
		return issues[i].Message < issues[j].Message
	})
	return issues
}
