package core

import "iohwab/protocol"

// IdentifyChunkMax bounds one identify_response so it fits in a frame
const IdentifyChunkMax = 40

// InitAnalogCommands registers the host command surface of the analog
// scheduler. identify_response and identify must keep IDs 0 and 1 so a
// host can fetch the dictionary before it knows anything else.
func InitAnalogCommands() {
	RegisterResponse("identify_response", "offset=%u data=%*s")
	RegisterCommand("identify", "offset=%u count=%c", handleIdentify)

	RegisterCommand("get_analog_config", "", handleGetAnalogConfig)
	RegisterCommand("query_analog_channel", "oid=%c", handleQueryAnalogChannel)
	RegisterCommand("get_analog_stats", "", handleGetAnalogStats)
	RegisterCommand("get_analog_faults", "", handleGetAnalogFaults)

	RegisterResponse("analog_config", "count=%c groups=%c initialized=%c")
	RegisterResponse("analog_channel_state", "oid=%c value=%hu status=%c")
	RegisterResponse("analog_stats", "fires=%u started=%u completed=%u not_started=%u overruns=%u faults=%u")
	RegisterResponse("analog_fault", "code=%c idx=%c group=%c clock=%u")
}

// handleIdentify returns one chunk of the dictionary text
func handleIdentify(data *[]byte) error {
	offset, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	count, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if count > IdentifyChunkMax {
		count = IdentifyChunkMax
	}

	dict := globalRegistry.GetDictionary()
	var chunk []byte
	if int(offset) < len(dict) {
		end := int(offset) + int(count)
		if end > len(dict) {
			end = len(dict)
		}
		chunk = []byte(dict[offset:end])
	}
	return SendResponse("identify_response", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQBytes(output, chunk)
	})
}

func boolByte(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func handleGetAnalogConfig(data *[]byte) error {
	var count, groups int
	initialized := false
	if s := DefaultAnalogScheduler(); s != nil && s.Table() != nil {
		count = s.Table().Len()
		groups = s.Table().Groups()
		initialized = s.Initialized()
	}
	return SendResponse("analog_config", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(count))
		protocol.EncodeVLQUint(output, uint32(groups))
		protocol.EncodeVLQUint(output, boolByte(initialized))
	})
}

// handleQueryAnalogChannel reports the last value and status of one channel
func handleQueryAnalogChannel(data *[]byte) error {
	oid, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	r := ConversionResult{Status: StatusNotInitialized}
	if s := DefaultAnalogScheduler(); s != nil {
		if oid > 0xFF {
			r = ConversionResult{Status: StatusInvalid}
		} else {
			r = s.ReadResult(uint8(oid))
		}
	}
	return SendResponse("analog_channel_state", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, oid)
		protocol.EncodeVLQUint(output, uint32(r.Value))
		protocol.EncodeVLQUint(output, uint32(r.Status))
	})
}

func handleGetAnalogStats(data *[]byte) error {
	var st AnalogStats
	if s := DefaultAnalogScheduler(); s != nil {
		st = s.Stats()
	}
	return SendResponse("analog_stats", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, st.Fires)
		protocol.EncodeVLQUint(output, st.Started)
		protocol.EncodeVLQUint(output, st.Completed)
		protocol.EncodeVLQUint(output, st.NotStarted)
		protocol.EncodeVLQUint(output, st.Overruns)
		protocol.EncodeVLQUint(output, st.Faults)
	})
}

// handleGetAnalogFaults sends one analog_fault per recorded fault, oldest first
func handleGetAnalogFaults(data *[]byte) error {
	state := disableInterrupts()
	faults := faultRing.Snapshot()
	restoreInterrupts(state)

	for _, f := range faults {
		err := SendResponse("analog_fault", func(output protocol.OutputBuffer) {
			protocol.EncodeVLQUint(output, uint32(f.Code))
			protocol.EncodeVLQUint(output, uint32(f.Index))
			protocol.EncodeVLQUint(output, uint32(f.Group))
			protocol.EncodeVLQUint(output, f.Clock)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
