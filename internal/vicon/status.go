package vicon

import "fmt"

// Status is a classified return code from the Vicon DataStream SDK.
//
// The named values mirror the codes listed in the SDK's CTypeDefs.h. Any code
// outside that table (including 0) is Unknown and keeps its raw value so it
// can still be reported.
type Status int32

const (
	Unimplemented                      Status = 1
	Success                            Status = 2
	InvalidHostname                    Status = 3
	InvalidMulticastIP                 Status = 4
	ClientAlreadyConnected             Status = 5
	ClientConnectionFailed             Status = 6
	ServerAlreadyTransmittingMulticast Status = 7
	ServerNotTransmittingMulticast     Status = 8
	NotConnected                       Status = 9
	NoDataFrame                        Status = 10
	InvalidIndex                       Status = 11
	InvalidCameraName                  Status = 12
	InvalidSubjectName                 Status = 13
	InvalidSegmentName                 Status = 14
	InvalidMarkerName                  Status = 15
	InvalidDeviceName                  Status = 16
	InvalidDeviceOutputName            Status = 17
	InvalidLatencySampleRate           Status = 18
	InvalidCoLinearAxes                Status = 19
	LeftHandedAxes                     Status = 20
	HapticAlreadySet                   Status = 21
	EarlyDataRequested                 Status = 22
	LateDataRequested                  Status = 23
	InvalidOperation                   Status = 24
	Unsupported                        Status = 25
	ConfigurationFailed                Status = 26
	NotPresent                         Status = 27
)

var statusNames = map[Status]string{
	Unimplemented:                      "Unimplemented",
	Success:                            "Success",
	InvalidHostname:                    "InvalidHostname",
	InvalidMulticastIP:                 "InvalidMulticastIP",
	ClientAlreadyConnected:             "ClientAlreadyConnected",
	ClientConnectionFailed:             "ClientConnectionFailed",
	ServerAlreadyTransmittingMulticast: "ServerAlreadyTransmittingMulticast",
	ServerNotTransmittingMulticast:     "ServerNotTransmittingMulticast",
	NotConnected:                       "NotConnected",
	NoDataFrame:                        "NoDataFrame",
	InvalidIndex:                       "InvalidIndex",
	InvalidCameraName:                  "InvalidCameraName",
	InvalidSubjectName:                 "InvalidSubjectName",
	InvalidSegmentName:                 "InvalidSegmentName",
	InvalidMarkerName:                  "InvalidMarkerName",
	InvalidDeviceName:                  "InvalidDeviceName",
	InvalidDeviceOutputName:            "InvalidDeviceOutputName",
	InvalidLatencySampleRate:           "InvalidLatencySampleRate",
	InvalidCoLinearAxes:                "InvalidCoLinearAxes",
	LeftHandedAxes:                     "LeftHandedAxes",
	HapticAlreadySet:                   "HapticAlreadySet",
	EarlyDataRequested:                 "EarlyDataRequested",
	LateDataRequested:                  "LateDataRequested",
	InvalidOperation:                   "InvalidOperation",
	Unsupported:                        "Unsupported",
	ConfigurationFailed:                "ConfigurationFailed",
	NotPresent:                         "NotPresent",
}

// Classify maps a native SDK return code to a Status. It is defined for every
// int32; codes outside the SDK table classify as Unknown.
func Classify(code int32) Status {
	return Status(code)
}

// Known reports whether s is one of the named SDK codes.
func (s Status) Known() bool {
	_, ok := statusNames[s]
	return ok
}

// IsSuccess reports whether s is the single success code.
func (s Status) IsSuccess() bool {
	return s == Success
}

// Code returns the raw native value.
func (s Status) Code() int32 {
	return int32(s)
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", int32(s))
}
