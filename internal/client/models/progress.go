package models

type Stage string

const (
	StageIdle              Stage = "idle"
	StageValidating        Stage = "validating"
	StageUploading         Stage = "uploading"
	StageAwaitingSignature Stage = "awaiting-signature"
	StageConfirming        Stage = "confirming"
	StageDone              Stage = "done"
	StageDegraded          Stage = "degraded"
	StageFailed            Stage = "failed"
)

// Terminal reports whether no further transition follows.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageDegraded || s == StageFailed
}

// Progress is one observation of a create flow. Percent is a cosmetic
// estimate; it is 100 only in StageDone.
type Progress struct {
	Stage   Stage
	Percent int
	Detail  string
}
