package services

import (
	"fmt"
	"math"
	"sync"
)

// trainingSample is one labeled row of the seed set the engagement model is
// fitted on: total points, brushings in the trailing week, and whether the
// user stayed active.
type trainingSample struct {
	points          float64
	weeklyFrequency float64
	isActive        bool
}

// seedSamples is the fixed training set. The model is intentionally tiny: the
// two features are well separated and the fit is fully deterministic.
var seedSamples = []trainingSample{
	{points: 400, weeklyFrequency: 18, isActive: true},
	{points: 120, weeklyFrequency: 12, isActive: true},
	{points: 60, weeklyFrequency: 5, isActive: false},
	{points: 20, weeklyFrequency: 2, isActive: false},
	{points: 250, weeklyFrequency: 10, isActive: true},
	{points: 80, weeklyFrequency: 4, isActive: false},
	{points: 300, weeklyFrequency: 15, isActive: true},
	{points: 100, weeklyFrequency: 3, isActive: false},
}

// PredictionResult is the classifier output: the predicted label and the
// probability of the positive ("will stay active") class.
type PredictionResult struct {
	WillStayActive bool    `json:"will_stay_active"`
	Probability    float64 `json:"probability"`
}

// Classifier is a two-feature logistic regression model. It is read-only after
// fitting and safe for concurrent use.
type Classifier struct {
	weights [2]float64
	bias    float64
	mean    [2]float64
	scale   [2]float64
}

const (
	fitIterations   = 5000
	fitLearningRate = 0.1
)

var (
	sharedClassifier *Classifier
	classifierOnce   sync.Once
	classifierErr    error
)

// InitClassifier fits the process-wide model from the seed samples. The fit
// runs at most once per process; call this during startup so a training
// failure aborts boot instead of surfacing on the first prediction.
func InitClassifier() error {
	classifierOnce.Do(func() {
		sharedClassifier, classifierErr = fitClassifier(seedSamples)
	})
	return classifierErr
}

// GetClassifier returns the shared fitted model, fitting it on first use.
// Returns nil only if training failed, which InitClassifier reports at boot.
func GetClassifier() *Classifier {
	_ = InitClassifier()
	return sharedClassifier
}

// fitClassifier standardizes the features and runs full-batch gradient descent
// on the logistic loss. Weights start at zero and the step size and iteration
// count are fixed, so two fits over the same data always produce the same model.
func fitClassifier(samples []trainingSample) (*Classifier, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: empty training set", ErrTrainingFailed)
	}

	c := &Classifier{}
	n := float64(len(samples))

	for _, s := range samples {
		c.mean[0] += s.points
		c.mean[1] += s.weeklyFrequency
	}
	c.mean[0] /= n
	c.mean[1] /= n

	for _, s := range samples {
		c.scale[0] += (s.points - c.mean[0]) * (s.points - c.mean[0])
		c.scale[1] += (s.weeklyFrequency - c.mean[1]) * (s.weeklyFrequency - c.mean[1])
	}
	for i := range c.scale {
		c.scale[i] = math.Sqrt(c.scale[i] / n)
		if c.scale[i] == 0 {
			// constant feature carries no signal; leave it centered
			c.scale[i] = 1
		}
	}

	features := make([][2]float64, len(samples))
	labels := make([]float64, len(samples))
	for i, s := range samples {
		features[i] = c.standardize(s.points, s.weeklyFrequency)
		if s.isActive {
			labels[i] = 1
		}
	}

	for iter := 0; iter < fitIterations; iter++ {
		var gradW [2]float64
		var gradB float64
		for i, x := range features {
			p := sigmoid(c.bias + c.weights[0]*x[0] + c.weights[1]*x[1])
			diff := p - labels[i]
			gradW[0] += diff * x[0]
			gradW[1] += diff * x[1]
			gradB += diff
		}
		c.weights[0] -= fitLearningRate * gradW[0] / n
		c.weights[1] -= fitLearningRate * gradW[1] / n
		c.bias -= fitLearningRate * gradB / n
	}

	if math.IsNaN(c.weights[0]) || math.IsNaN(c.weights[1]) || math.IsNaN(c.bias) ||
		math.IsInf(c.weights[0], 0) || math.IsInf(c.weights[1], 0) || math.IsInf(c.bias, 0) {
		return nil, fmt.Errorf("%w: fit diverged", ErrTrainingFailed)
	}

	// The seed set is linearly separable; a fit that misclassifies any of it
	// did not converge and must not be served.
	for _, s := range samples {
		if c.Predict(s.points, s.weeklyFrequency).WillStayActive != s.isActive {
			return nil, fmt.Errorf("%w: fit does not separate training data", ErrTrainingFailed)
		}
	}

	return c, nil
}

// Predict scores a (points, weekly frequency) pair. Any finite input is
// accepted; out-of-distribution values simply yield saturated probabilities.
func (c *Classifier) Predict(points, weeklyFrequency float64) PredictionResult {
	x := c.standardize(points, weeklyFrequency)
	p := sigmoid(c.bias + c.weights[0]*x[0] + c.weights[1]*x[1])
	return PredictionResult{
		WillStayActive: p >= 0.5,
		Probability:    p,
	}
}

func (c *Classifier) standardize(points, weeklyFrequency float64) [2]float64 {
	return [2]float64{
		(points - c.mean[0]) / c.scale[0],
		(weeklyFrequency - c.mean[1]) / c.scale[1],
	}
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
