package dice

import "go.uber.org/zap"

// Faces is the number of faces on the movement die.
const Faces = 6

// Roller wraps a Source and logger to provide logged die rolling.
// All rolls are logged at debug level with faces and value.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// RollDie rolls the standard movement die.
//
// Postcondition: Returns a uniform value in [1, Faces]; the roll is logged.
func (r *Roller) RollDie() int {
	return r.Roll(Faces)
}

// Roll rolls a die with the given number of faces.
//
// Precondition: faces >= 2.
// Postcondition: Returns a uniform value in [1, faces]; the roll is logged.
func (r *Roller) Roll(faces int) int {
	v := r.src.Intn(faces) + 1
	r.logger.Debug("die roll",
		zap.Int("faces", faces),
		zap.Int("value", v),
	)
	return v
}

// Source returns the underlying randomness source, for components that need
// raw uniform draws (the wormhole model).
func (r *Roller) Source() Source {
	return r.src
}
