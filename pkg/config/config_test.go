package config

import "testing"

func twoCoreSystem() *System {
	return &System{
		Cores: []CoreConfig{
			{ID: 0, IsASRCore: true, AutoStart: true, IsHWInitCore: true, NumPriorities: 32, IdlePriority: 31},
			{ID: 1, IsASRCore: true, AutoStart: true, NumPriorities: 32, IdlePriority: 31},
		},
		Tasks: []TaskConfig{
			{ID: 0, HomePriority: 10, RunningPriority: 10, MaxActivations: 1, Core: 0},
			{ID: 1, HomePriority: 5, RunningPriority: 4, MaxActivations: 1, Core: 0},
		},
		Resources: []ResourceConfig{
			{ID: 0, Kind: StandardResource, Ceiling: 4, Core: 0},
		},
	}
}

func TestSystem_ValidateOK(t *testing.T) {
	s := twoCoreSystem()
	if err := s.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSystem_ValidateRequiresOneHWInitCore(t *testing.T) {
	s := twoCoreSystem()
	s.Cores[0].IsHWInitCore = false
	if err := s.Validate(); err == nil {
		t.Fatal("expected error with zero HW-init cores")
	}
	s.Cores[0].IsHWInitCore = true
	s.Cores[1].IsHWInitCore = true
	if err := s.Validate(); err == nil {
		t.Fatal("expected error with two HW-init cores")
	}
}

func TestSystem_ValidateRunningPriority(t *testing.T) {
	s := twoCoreSystem()
	s.Tasks[0].RunningPriority = s.Tasks[0].HomePriority + 1
	if err := s.Validate(); err == nil {
		t.Fatal("expected error: running priority numerically higher than home")
	}
}

func TestSystem_ValidateUnknownCore(t *testing.T) {
	s := twoCoreSystem()
	s.Tasks[0].Core = 99
	if err := s.Validate(); err == nil {
		t.Fatal("expected error referencing unknown core")
	}
}

func TestLoad(t *testing.T) {
	doc := []byte(`
[[Cores]]
ID = 0
IsASRCore = true
AutoStart = true
IsHWInitCore = true
NumPriorities = 4
IdlePriority = 3
`)
	sys, err := Load(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sys.Cores) != 1 || sys.Cores[0].NumPriorities != 4 {
		t.Fatalf("unexpected decode: %+v", sys.Cores)
	}
}
