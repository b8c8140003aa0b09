package platlayer

// Devices returns the connected input devices ordered by id.
func (p *Platform) Devices() []Device {
	p.check("platlayer.Devices")
	return p.devices.Enumerate()
}

// Device returns a device, including a disconnected one whose events are
// still queued.
func (p *Platform) Device(id DeviceID) (Device, error) {
	p.check("platlayer.Device")
	return p.devices.Device(id)
}

// ScanDevices registers devices attached since the last scan. Devices that
// are already known keep their ids.
func (p *Platform) ScanDevices() error {
	p.check("platlayer.ScanDevices")
	return p.devices.Scan()
}

// ControllerState returns the button and axis state of a device as of the
// last event queued for it. Collected devices report ErrStaleHandle.
func (p *Platform) ControllerState(id DeviceID) (ControllerState, error) {
	p.check("platlayer.ControllerState")
	return p.devices.ControllerState(id)
}
