package zeroconf

// DeviceFromEntry exposes deviceFromEntry to the external test package.
var DeviceFromEntry = deviceFromEntry
