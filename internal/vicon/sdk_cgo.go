//go:build vicon && cgo
// +build vicon,cgo

package vicon

/*
#cgo CFLAGS: -I${SRCDIR}/../../vendor/libvicon
#cgo LDFLAGS: -L${SRCDIR}/../../vendor/libvicon -lViconDataStreamSDK_C
#include <stdlib.h>
#include "CClient.h"
*/
import "C"

import (
	"errors"
	"unsafe"
)

// sdkClient binds Client to the ViconDataStreamSDK_C shared library.
// This file is only compiled with the 'vicon' build tag.
type sdkClient struct {
	handle unsafe.Pointer
}

// NewSDKClient allocates a native SDK client handle.
func NewSDKClient() (Client, error) {
	h := C.Client_Create()
	if h == nil {
		return nil, errors.New("vicon: Client_Create returned nil")
	}
	return &sdkClient{handle: unsafe.Pointer(h)}, nil
}

func (c *sdkClient) ptr() *C.CClient { return (*C.CClient)(c.handle) }

func (c *sdkClient) SetConnectionTimeout(milliseconds uint32) int32 {
	return int32(C.Client_SetConnectionTimeout(c.ptr(), C.uint(milliseconds)))
}

func (c *sdkClient) Connect(hostAndPort string) int32 {
	host := C.CString(hostAndPort)
	defer C.free(unsafe.Pointer(host))
	return int32(C.Client_Connect(c.ptr(), host))
}

func (c *sdkClient) Disconnect() int32 {
	return int32(C.Client_Disconnect(c.ptr()))
}

func (c *sdkClient) SetStreamMode(mode StreamMode) int32 {
	return int32(C.Client_SetStreamMode(c.ptr(), C.CEnum(mode)))
}

func (c *sdkClient) SetAxisMapping(x, y, z Direction) int32 {
	return int32(C.Client_SetAxisMapping(c.ptr(), C.CEnum(x), C.CEnum(y), C.CEnum(z)))
}

func (c *sdkClient) EnableSegmentData() int32 {
	return int32(C.Client_EnableSegmentData(c.ptr()))
}

func (c *sdkClient) EnableMarkerData() int32 {
	return int32(C.Client_EnableMarkerData(c.ptr()))
}

func (c *sdkClient) GetFrame() int32 {
	return int32(C.Client_GetFrame(c.ptr()))
}

func (c *sdkClient) GetSubjectCount() (uint32, int32) {
	var out C.COutput_GetSubjectCount
	out.Result = C.CResult_UnknownResult
	C.Client_GetSubjectCount(c.ptr(), &out)
	return uint32(out.SubjectCount), int32(out.Result)
}

func (c *sdkClient) GetSubjectName(index uint32, buf []byte) int32 {
	if len(buf) == 0 {
		return int32(InvalidOperation)
	}
	return int32(C.Client_GetSubjectName(c.ptr(), C.uint(index), C.int(len(buf)), (*C.char)(unsafe.Pointer(&buf[0]))))
}

func (c *sdkClient) GetSegmentCount(subject string) (uint32, int32) {
	cs := C.CString(subject)
	defer C.free(unsafe.Pointer(cs))

	var out C.COutput_GetSegmentCount
	out.Result = C.CResult_UnknownResult
	C.Client_GetSegmentCount(c.ptr(), cs, &out)
	return uint32(out.SegmentCount), int32(out.Result)
}

func (c *sdkClient) GetSegmentName(subject string, index uint32, buf []byte) int32 {
	if len(buf) == 0 {
		return int32(InvalidOperation)
	}
	cs := C.CString(subject)
	defer C.free(unsafe.Pointer(cs))
	return int32(C.Client_GetSegmentName(c.ptr(), cs, C.uint(index), C.int(len(buf)), (*C.char)(unsafe.Pointer(&buf[0]))))
}

func (c *sdkClient) GetSegmentGlobalTranslation(subject, segment string) (Translation, int32) {
	cs, cg := C.CString(subject), C.CString(segment)
	defer C.free(unsafe.Pointer(cs))
	defer C.free(unsafe.Pointer(cg))

	var out C.COutput_GetSegmentGlobalTranslation
	out.Result = C.CResult_UnknownResult
	C.Client_GetSegmentGlobalTranslation(c.ptr(), cs, cg, &out)

	var t Translation
	for i := range t.Translation {
		t.Translation[i] = float64(out.Translation[i])
	}
	t.Occluded = out.Occluded != 0
	return t, int32(out.Result)
}

func (c *sdkClient) GetSegmentGlobalRotationEulerXYZ(subject, segment string) (EulerXYZ, int32) {
	cs, cg := C.CString(subject), C.CString(segment)
	defer C.free(unsafe.Pointer(cs))
	defer C.free(unsafe.Pointer(cg))

	var out C.COutput_GetSegmentGlobalRotationEulerXYZ
	out.Result = C.CResult_UnknownResult
	C.Client_GetSegmentGlobalRotationEulerXYZ(c.ptr(), cs, cg, &out)

	var e EulerXYZ
	for i := range e.Rotation {
		e.Rotation[i] = float64(out.Rotation[i])
	}
	e.Occluded = out.Occluded != 0
	return e, int32(out.Result)
}

func (c *sdkClient) GetSegmentGlobalRotationQuaternion(subject, segment string) (NativeQuaternion, int32) {
	cs, cg := C.CString(subject), C.CString(segment)
	defer C.free(unsafe.Pointer(cs))
	defer C.free(unsafe.Pointer(cg))

	var out C.COutput_GetSegmentGlobalRotationQuaternion
	out.Result = C.CResult_UnknownResult
	C.Client_GetSegmentGlobalRotationQuaternion(c.ptr(), cs, cg, &out)

	var q NativeQuaternion
	for i := range q.Rotation {
		q.Rotation[i] = float64(out.Rotation[i])
	}
	q.Occluded = out.Occluded != 0
	return q, int32(out.Result)
}

func (c *sdkClient) Destroy() {
	if c.handle == nil {
		return
	}
	C.Client_Destroy(c.ptr())
	c.handle = nil
}
