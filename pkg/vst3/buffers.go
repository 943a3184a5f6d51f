package vst3

// ParamChange is one normalized parameter value delivered to the audio
// processor at the start of a block.
type ParamChange struct {
	ID    ParamID
	Value float64
}

// ProcessData is the host's description of one processing block. Inputs
// and Outputs hold the channels of the main audio buses; auxiliary buses
// are fed silence by the bridge. The slices are owned by the caller and
// must stay valid for the duration of the Process call.
type ProcessData struct {
	NumSamples   int32
	Inputs       [][]float32
	Outputs      [][]float32
	ParamChanges []ParamChange

	// ContinuousTime is the running sample position since processing
	// started.
	ContinuousTime int64

	// DroppedChanges is set by the processor to the number of
	// ParamChanges it could not hand to the plugin.
	DroppedChanges int32
}
