package wgpu_engine

import (
	"fmt"

	"honnef.co/go/wgpu"
)

type DeviceOptions struct {
	// Profile requests timestamp query support, for use with the
	// engine profiler. Acquisition fails if the adapter doesn't
	// support it.
	Profile bool
}

// AcquireDevice creates a wgpu instance and requests an adapter and a
// device from it. It is the only step of setting up an engine that can
// fail; everything after it panics on misuse instead.
func AcquireDevice(options *DeviceOptions) (*wgpu.Device, *wgpu.Queue, error) {
	if options == nil {
		options = &DeviceOptions{}
	}

	instance := wgpu.CreateInstance(wgpu.InstanceDescriptor{})
	adapter, err := instance.RequestAdapter(wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("requesting adapter: %w", err)
	}

	var features []wgpu.FeatureName
	if options.Profile {
		features = append(features, wgpu.FeatureNameTimestampQuery)
	}
	dev, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:            "cellgrid device",
		RequiredFeatures: features,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("requesting device: %w", err)
	}

	return dev, dev.Queue(), nil
}
