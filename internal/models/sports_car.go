package models

import "fmt"

// SportsCar is a vehicle with a turbo that can only run while the engine is on.
type SportsCar struct {
	BaseVehicle
	turboEngaged bool
}

func NewSportsCar(id, model, color string) (*SportsCar, error) {
	b, err := newBase(id, model, color, TypeSportsCar)
	if err != nil {
		return nil, err
	}
	return &SportsCar{BaseVehicle: b}, nil
}

func (s *SportsCar) TurboEngaged() bool { return s.turboEngaged }

// TurnOff also disengages the turbo when the engine stops.
func (s *SportsCar) TurnOff() Result {
	res := s.BaseVehicle.TurnOff()
	if res.Changed && s.turboEngaged {
		s.turboEngaged = false
		res.Message = fmt.Sprintf("%s turned off, turbo disengaged.", s.model)
	}
	return res
}

func (s *SportsCar) EngageTurbo() Result {
	if !s.engineOn {
		return rejected("%s must be on to engage the turbo.", s.model)
	}
	if s.turboEngaged {
		return informed("Turbo on %s is already engaged.", s.model)
	}
	s.turboEngaged = true
	return succeeded("Turbo engaged on %s!", s.model)
}

func (s *SportsCar) DisengageTurbo() Result {
	if !s.engineOn {
		return rejected("%s must be on to disengage the turbo.", s.model)
	}
	if !s.turboEngaged {
		return informed("Turbo on %s is already disengaged.", s.model)
	}
	s.turboEngaged = false
	return succeeded("Turbo disengaged on %s.", s.model)
}

func (s *SportsCar) Describe() string {
	turbo := "off"
	if s.turboEngaged {
		turbo = "on"
	}
	return fmt.Sprintf("%s, turbo %s", s.BaseVehicle.Describe(), turbo)
}

func (s *SportsCar) Serialize() StoredVehicle {
	stored := s.BaseVehicle.Serialize()
	turbo := s.turboEngaged
	stored.TurboEngaged = &turbo
	return stored
}
