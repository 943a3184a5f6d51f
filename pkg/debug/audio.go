package debug

import (
	"fmt"
	"math"
)

// AudioAnalyzer inspects audio produced by a plugin.
type AudioAnalyzer struct {
	clippingThreshold float32
	dcThreshold       float32
	silenceThreshold  float32
}

// NewAudioAnalyzer creates a new audio analyzer with default settings.
func NewAudioAnalyzer() *AudioAnalyzer {
	return &AudioAnalyzer{
		clippingThreshold: 0.99,
		dcThreshold:       0.01,
		silenceThreshold:  0.0001,
	}
}

// AnalysisResult contains the results of audio buffer analysis. Samples
// that are NaN or infinite are counted but left out of every other figure.
type AnalysisResult struct {
	Samples        int
	Peak           float32
	RMS            float32
	DC             float32
	ClippedSamples int
	Silent         bool
	NaNCount       int
	InfCount       int
	ZeroCrossings  int
}

// Finite reports whether no NaN or infinite sample was seen.
func (r AnalysisResult) Finite() bool {
	return r.NaNCount == 0 && r.InfCount == 0
}

// Clipping reports whether any sample reached the clipping threshold.
func (r AnalysisResult) Clipping() bool {
	return r.ClippedSamples > 0
}

// Analyze performs comprehensive analysis on one channel.
func (a *AudioAnalyzer) Analyze(buffer []float32) AnalysisResult {
	return a.AnalyzeChannels([][]float32{buffer})
}

// AnalyzeChannels analyzes several channels as one signal. Zero crossings
// are counted within each channel.
func (a *AudioAnalyzer) AnalyzeChannels(channels [][]float32) AnalysisResult {
	var result AnalysisResult
	var sum, sumSquares float64
	finite := 0

	for _, buffer := range channels {
		result.Samples += len(buffer)
		first := true
		var last float32
		for _, sample := range buffer {
			s := float64(sample)
			switch {
			case math.IsNaN(s):
				result.NaNCount++
				continue
			case math.IsInf(s, 0):
				result.InfCount++
				continue
			}
			finite++

			abs := float32(math.Abs(s))
			result.Peak = max(result.Peak, abs)
			if abs >= a.clippingThreshold {
				result.ClippedSamples++
			}
			sum += s
			sumSquares += s * s

			if !first && (last < 0) != (sample < 0) {
				result.ZeroCrossings++
			}
			last, first = sample, false
		}
	}

	if finite == 0 {
		result.Silent = result.Finite()
		return result
	}
	result.RMS = float32(math.Sqrt(sumSquares / float64(finite)))
	result.DC = float32(sum / float64(finite))
	result.Silent = result.RMS < a.silenceThreshold
	return result
}

// Issues lists the problems a result shows, prefixed with name.
func (a *AudioAnalyzer) Issues(result AnalysisResult, name string) []string {
	var issues []string
	if result.NaNCount > 0 {
		issues = append(issues, fmt.Sprintf("%s: contains %d NaN values", name, result.NaNCount))
	}
	if result.InfCount > 0 {
		issues = append(issues, fmt.Sprintf("%s: contains %d infinite values", name, result.InfCount))
	}
	if result.Clipping() {
		issues = append(issues, fmt.Sprintf("%s: clipping detected (%d samples)", name, result.ClippedSamples))
	}
	if math.Abs(float64(result.DC)) > float64(a.dcThreshold) {
		issues = append(issues, fmt.Sprintf("%s: DC offset detected (%.3f)", name, result.DC))
	}
	if result.Peak > 1.0 {
		issues = append(issues, fmt.Sprintf("%s: peak exceeds 1.0 (%.3f)", name, result.Peak))
	}
	return issues
}

// CheckBuffer performs basic sanity checks on an audio buffer.
func CheckBuffer(buffer []float32, name string) []string {
	a := NewAudioAnalyzer()
	return a.Issues(a.Analyze(buffer), name)
}

// CompareBuffers returns the largest absolute difference between a and b
// and its index. Buffers of different length compare as infinitely apart.
func CompareBuffers(a, b []float32) (maxDiff float32, index int) {
	if len(a) != len(b) {
		return float32(math.Inf(1)), -1
	}
	for i := range a {
		diff := float32(math.Abs(float64(a[i] - b[i])))
		if diff > maxDiff {
			maxDiff, index = diff, i
		}
	}
	return maxDiff, index
}
