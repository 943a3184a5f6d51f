package debug

import (
	"math"
	"strings"
	"testing"
)

func TestAudioAnalyzer(t *testing.T) {
	t.Run("BasicAnalysis", func(t *testing.T) {
		analyzer := NewAudioAnalyzer()

		// 440Hz sine at 48kHz
		buffer := make([]float32, 1000)
		for i := range buffer {
			buffer[i] = 0.5 * float32(math.Sin(2*math.Pi*440*float64(i)/48000))
		}

		result := analyzer.Analyze(buffer)

		if result.Samples != 1000 {
			t.Errorf("Wrong sample count: %d", result.Samples)
		}
		if result.Peak < 0.49 || result.Peak > 0.51 {
			t.Errorf("Peak incorrect: %f", result.Peak)
		}
		expectedRMS := 0.5 / math.Sqrt(2)
		if math.Abs(float64(result.RMS)-expectedRMS) > 0.01 {
			t.Errorf("RMS incorrect: %f, expected ~%f", result.RMS, expectedRMS)
		}
		if result.ZeroCrossings == 0 {
			t.Error("No zero crossings detected")
		}
		if result.Silent {
			t.Error("Should not be silent")
		}
		if !result.Finite() {
			t.Error("Sine should be finite")
		}
	})

	t.Run("Clipping", func(t *testing.T) {
		analyzer := NewAudioAnalyzer()

		result := analyzer.Analyze([]float32{0.5, 0.99, 1.0, -0.99, -1.0, 0.5})

		if !result.Clipping() {
			t.Error("Should detect clipping")
		}
		if result.ClippedSamples != 4 {
			t.Errorf("Wrong clipped sample count: %d", result.ClippedSamples)
		}
	})

	t.Run("DCOffset", func(t *testing.T) {
		analyzer := NewAudioAnalyzer()

		buffer := make([]float32, 100)
		for i := range buffer {
			buffer[i] = 0.25
		}
		result := analyzer.Analyze(buffer)

		if math.Abs(float64(result.DC)-0.25) > 1e-6 {
			t.Errorf("DC incorrect: %f", result.DC)
		}
		issues := analyzer.Issues(result, "out")
		if len(issues) != 1 || !strings.Contains(issues[0], "DC offset") {
			t.Errorf("Expected a DC offset issue, got %v", issues)
		}
	})

	t.Run("Silence", func(t *testing.T) {
		analyzer := NewAudioAnalyzer()

		if !analyzer.Analyze(make([]float32, 64)).Silent {
			t.Error("Zeros should be silent")
		}
		if !analyzer.Analyze(nil).Silent {
			t.Error("Empty buffer should be silent")
		}
	})

	t.Run("NonFinite", func(t *testing.T) {
		analyzer := NewAudioAnalyzer()

		nan := float32(math.NaN())
		inf := float32(math.Inf(1))
		result := analyzer.Analyze([]float32{0.1, nan, inf, -inf, 0.1})

		if result.NaNCount != 1 {
			t.Errorf("Wrong NaN count: %d", result.NaNCount)
		}
		if result.InfCount != 2 {
			t.Errorf("Wrong Inf count: %d", result.InfCount)
		}
		if result.Finite() {
			t.Error("Should not be finite")
		}
		if math.Abs(float64(result.Peak)-0.1) > 1e-6 {
			t.Errorf("Non-finite samples leaked into peak: %f", result.Peak)
		}
		if r := analyzer.Analyze([]float32{nan}); r.Silent {
			t.Error("All-NaN buffer should not count as silent")
		}
	})

	t.Run("Channels", func(t *testing.T) {
		analyzer := NewAudioAnalyzer()

		// The crossing between the channels does not count.
		result := analyzer.AnalyzeChannels([][]float32{{0.5, 0.5}, {-0.5, -0.5}})

		if result.Samples != 4 {
			t.Errorf("Wrong sample count: %d", result.Samples)
		}
		if result.ZeroCrossings != 0 {
			t.Errorf("Wrong zero crossings: %d", result.ZeroCrossings)
		}
		if result.DC != 0 {
			t.Errorf("DC should cancel: %f", result.DC)
		}
	})
}

func TestCheckBuffer(t *testing.T) {
	if issues := CheckBuffer([]float32{0.1, -0.1, 0.2, -0.2}, "clean"); len(issues) != 0 {
		t.Errorf("Clean buffer reported issues: %v", issues)
	}

	issues := CheckBuffer([]float32{float32(math.NaN()), 1.5, -1.5}, "bad")
	want := []string{"NaN", "clipping", "peak exceeds"}
	for _, w := range want {
		found := false
		for _, issue := range issues {
			if strings.HasPrefix(issue, "bad: ") && strings.Contains(issue, w) {
				found = true
			}
		}
		if !found {
			t.Errorf("Missing %q issue in %v", w, issues)
		}
	}
}

func TestCompareBuffers(t *testing.T) {
	diff, index := CompareBuffers([]float32{0, 0.5, 1}, []float32{0, 0.25, 1})
	if diff != 0.25 || index != 1 {
		t.Errorf("Got %f at %d", diff, index)
	}

	diff, index = CompareBuffers([]float32{1, 2}, []float32{1, 2})
	if diff != 0 || index != 0 {
		t.Errorf("Identical buffers differ: %f at %d", diff, index)
	}

	diff, index = CompareBuffers([]float32{1}, []float32{1, 2})
	if !math.IsInf(float64(diff), 1) || index != -1 {
		t.Errorf("Length mismatch gave %f at %d", diff, index)
	}
}
