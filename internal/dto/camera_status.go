package dto

// CameraStatus reports the device session state.
type CameraStatus struct {
	Active      bool `json:"active"`
	Tracks      int  `json:"tracks"`
	ModelLoaded bool `json:"model_loaded"`
}
