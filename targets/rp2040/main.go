//go:build rp2040

package main

import (
	"machine"
	"time"

	"iohwab/core"
	"iohwab/protocol"
)

var (
	decoder protocol.FrameDecoder
	txSeq   uint8

	// Debug counters
	framesReceived uint32
	framesSent     uint32
	msgerrors      uint32
)

func main() {
	// Clear any watchdog state left from a previous run
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()
	UpdateSystemTime()

	core.SetDebugWriter(func(s string) {
		USBWriteBytes([]byte(s + "\r\n"))
	})
	core.SetResponseWriter(sendFrame)
	core.InitAnalogCommands()

	adc := NewRPAdcDriver(internalInputs)
	if ext, err := newSPIGroup(externalBus, externalInputs); err == nil {
		adc.AttachSPI(groupExternal, ext)
	} else {
		core.DebugPrintln("[ADC] external converter unavailable: " + err.Error())
	}
	core.SetADCDriver(adc)
	core.SetOCUDriver(newAlarmOCU(analogConfig.TriggerChannel, analogConfigCycleTicks))

	if err := core.InitAnalogIn(&analogConfig); err != nil {
		core.DebugPrintln("[ADC] init failed: " + err.Error())
		core.DumpFaultRing(core.GlobalFaultRing())
	}

	var rx [64]byte
	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					decoder.Reset()
				}
			}()

			UpdateSystemTime()

			n := 0
			for n < len(rx) && USBAvailable() > 0 {
				b, err := USBRead()
				if err != nil {
					msgerrors++
					break
				}
				rx[n] = b
				n++
			}
			if n > 0 {
				decoder.Feed(rx[:n])
			}

			for {
				f, ok := decoder.Next()
				if !ok {
					break
				}
				framesReceived++
				if err := core.GetGlobalRegistry().DispatchPayload(f.Payload); err != nil {
					msgerrors++
				}
			}
		}()

		time.Sleep(100 * time.Microsecond)
	}
}

// sendFrame frames one response payload and writes it to USB
func sendFrame(payload []byte) error {
	var out protocol.ScratchOutput
	if err := protocol.EncodeFrame(&out, txSeq, payload); err != nil {
		return err
	}
	txSeq = (txSeq + 1) & protocol.FrameSeqMask

	data := out.Result()
	for written := 0; written < len(data); {
		n, err := USBWriteBytes(data[written:])
		if err != nil {
			msgerrors++
			return err
		}
		if n == 0 {
			msgerrors++
			return nil
		}
		written += n
	}
	framesSent++
	return nil
}
