package vicon

import "github.com/banshee-data/mocap.stream/internal/monitoring"

// decodeFrame pulls the next frame from c and decodes the first segment of
// every subject. Subjects with no segments, or whose translation or rotation
// is occluded, are skipped. Any failing SDK call aborts the whole frame.
func decodeFrame(c Client, kind RotationKind) ([]Subject, error) {
	if err := check("get frame", c.GetFrame()); err != nil {
		return nil, err
	}

	count, code := c.GetSubjectCount()
	if err := check("get subject count", code); err != nil {
		return nil, err
	}

	subjects := make([]Subject, 0, count)
	for i := uint32(0); i < count; i++ {
		subject, err := readName("get subject name", func(buf []byte) int32 {
			return c.GetSubjectName(i, buf)
		})
		if err != nil {
			return nil, err
		}

		segments, code := c.GetSegmentCount(subject)
		if err := check("get segment count", code); err != nil {
			return nil, err
		}
		if segments == 0 {
			monitoring.Tracef("subject %q has no segments, skipping", subject)
			continue
		}

		segment, err := readName("get segment name", func(buf []byte) int32 {
			return c.GetSegmentName(subject, 0, buf)
		})
		if err != nil {
			return nil, err
		}

		translation, code := c.GetSegmentGlobalTranslation(subject, segment)
		if err := check("get segment global translation", code); err != nil {
			return nil, err
		}
		if translation.Occluded {
			monitoring.Tracef("subject %q translation occluded, skipping", subject)
			continue
		}

		rotation, occluded, err := readRotation(c, subject, segment, kind)
		if err != nil {
			return nil, err
		}
		if occluded {
			monitoring.Tracef("subject %q rotation occluded, skipping", subject)
			continue
		}

		subjects = append(subjects, Subject{
			Name:     displayName(subject),
			Origin:   MillimetersToMeters(translation.Translation),
			Rotation: rotation,
		})
	}

	return subjects, nil
}

// readRotation calls the SDK rotation getter that matches kind.
func readRotation(c Client, subject, segment string, kind RotationKind) (Rotation, bool, error) {
	switch kind {
	case Quaternion:
		q, code := c.GetSegmentGlobalRotationQuaternion(subject, segment)
		if err := check("get segment global rotation quaternion", code); err != nil {
			return Rotation{}, false, err
		}
		if q.Occluded {
			return Rotation{}, true, nil
		}
		r, err := QuaternionFromNative(q.Rotation)
		return r, false, err
	case Euler:
		e, code := c.GetSegmentGlobalRotationEulerXYZ(subject, segment)
		if err := check("get segment global rotation euler", code); err != nil {
			return Rotation{}, false, err
		}
		if e.Occluded {
			return Rotation{}, true, nil
		}
		return EulerFromNative(e.Rotation), false, nil
	default:
		return Rotation{}, false, &ConversionError{Reason: "unsupported rotation kind " + kind.String()}
	}
}
