/*Package usbtmc implements datagram encoding and decoding for USB Test and
Measurement Class devices, sized for the bench scopes: single bulk transfers
with the device's buffer assumed large enough for one message.

The concrete Device type satisfies io.ReadWriteCloser, so it can sit behind
a comm.Pool like any TCP or serial connection; SCPI text and binary block
responses flow through unchanged.
*/
package usbtmc

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/google/gousb"

	"github.com/yorkuphyslab/labbench/comm"
)

const (
	// TektronixVID is the USB vendor ID used by Tektronix instruments
	TektronixVID = 0x0699

	// bulk message IDs, USBTMC standard table 2
	devDepMsgOut       = 0x01
	requestDevDepMsgIn = 0x02
	reserved           = 0x00
	headerLen          = 12
	transferSize       = 8192
	transferAlignment  = 4
)

// bTagGen is a concurrent-safe generator for the transfer tags that sequence
// bulk messages.  Tags run 1..255 and wrap.
type bTagGen struct {
	sync.Mutex

	value byte
}

func (b *bTagGen) next() byte {
	b.Lock()
	defer b.Unlock()
	b.value++
	if b.value == 0 {
		b.value = 1
	}
	return b.value
}

// invbTag computes the bitwise inversion of a bTag, per USBTMC standard
// table 1 offset 2
func invbTag(b byte) byte {
	return b ^ 0xff
}

// encBulkOutHeader creates the header defined in USBTMC standard, Table 3.
// datalen counts message bytes exclusive of header and alignment padding.
func encBulkOutHeader(tag byte, datalen int) [headerLen]byte {
	out := [headerLen]byte{}
	out[0] = devDepMsgOut
	out[1] = tag
	out[2] = invbTag(tag)
	out[3] = reserved
	binary.LittleEndian.PutUint32(out[4:8], uint32(datalen))
	out[8] = 0x01 // EOM; these messages always fit in one transfer
	return out
}

// encBulkInHeader creates the header defined in USBTMC standard, Table 4.
// if terminator is nil the term-char bit is cleared and the device ignores it.
func encBulkInHeader(tag byte, bufsize int, terminator *byte) [headerLen]byte {
	out := [headerLen]byte{}
	out[0] = requestDevDepMsgIn
	out[1] = tag
	out[2] = invbTag(tag)
	out[3] = reserved
	binary.LittleEndian.PutUint32(out[4:8], uint32(bufsize))
	if terminator != nil {
		out[8] = 0x02
		out[9] = *terminator
	}
	return out
}

// Device is a USBTMC instrument endpoint pair behind an io.ReadWriteCloser
// facade
type Device struct {
	tagger *bTagGen
	ctx    *gousb.Context
	device *gousb.Device
	iface  *gousb.Interface
	in     *gousb.InEndpoint
	out    *gousb.OutEndpoint
	closer func()

	// leftover holds response bytes beyond what the last Read consumed
	leftover []byte
}

// NewDevice opens the USB device with the given vendor and product ID and
// claims its default interface
func NewDevice(vid, pid uint16) (*Device, error) {
	out := &Device{tagger: &bTagGen{}}
	var err error
	out.ctx = gousb.NewContext()
	out.device, err = out.ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		out.ctx.Close()
		return nil, err
	}
	if out.device == nil {
		out.ctx.Close()
		return nil, fmt.Errorf("no USB device with VID %04x PID %04x", vid, pid)
	}
	err = out.device.SetAutoDetach(true)
	if err != nil {
		out.Close()
		return nil, err
	}
	out.iface, out.closer, err = out.device.DefaultInterface()
	if err != nil {
		out.Close()
		return nil, err
	}
	out.in, err = out.iface.InEndpoint(2)
	if err != nil {
		out.Close()
		return nil, err
	}
	out.out, err = out.iface.OutEndpoint(2)
	if err != nil {
		out.Close()
		return nil, err
	}
	return out, nil
}

// ConnMaker returns a comm.CreationFunc which opens the USBTMC device with
// the given IDs, for use with comm.NewPool
func ConnMaker(vid, pid uint16) comm.CreationFunc {
	return func() (io.ReadWriteCloser, error) {
		return NewDevice(vid, pid)
	}
}

// Write frames b as a single DEV_DEP_MSG_OUT transfer and sends it.  The
// payload is padded to the 4 byte bulk alignment; padding is not reported
// in the return value.
func (d *Device) Write(b []byte) (int, error) {
	hdr := encBulkOutHeader(d.tagger.next(), len(b))
	msg := make([]byte, 0, headerLen+len(b)+transferAlignment)
	msg = append(msg, hdr[:]...)
	msg = append(msg, b...)
	if residual := len(msg) % transferAlignment; residual > 0 {
		msg = append(msg, make([]byte, transferAlignment-residual)...)
	}
	_, err := d.out.Write(msg)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

// Read requests a DEV_DEP_MSG_IN transfer and copies the payload into p.
// Bytes beyond len(p) are buffered for the next call.
func (d *Device) Read(p []byte) (int, error) {
	if len(d.leftover) > 0 {
		n := copy(p, d.leftover)
		d.leftover = d.leftover[n:]
		return n, nil
	}
	term := byte('\n')
	hdr := encBulkInHeader(d.tagger.next(), transferSize, &term)
	n, err := d.out.Write(hdr[:])
	if err != nil {
		return 0, err
	}
	if n != headerLen {
		return 0, fmt.Errorf("wrote %d bytes, not the %d required to transmit a read request", n, headerLen)
	}
	buf := make([]byte, transferSize)
	n, err = d.in.Read(buf)
	if err != nil {
		return 0, err
	}
	if n < headerLen {
		return 0, fmt.Errorf("only received %d bytes, need at least %d to form a header", n, headerLen)
	}
	// bytes 4:8 of the response header carry the true payload size,
	// which excludes the bulk alignment padding
	payloadLen := int(binary.LittleEndian.Uint32(buf[4:8]))
	payload := buf[headerLen:n]
	if payloadLen < len(payload) {
		payload = payload[:payloadLen]
	}
	copied := copy(p, payload)
	if copied < len(payload) {
		d.leftover = append(d.leftover[:0], payload[copied:]...)
	}
	return copied, nil
}

// Close releases the interface and the device
func (d *Device) Close() error {
	if d.closer != nil {
		d.closer()
	}
	var err error
	if d.device != nil {
		err = d.device.Close()
	}
	if d.ctx != nil {
		err2 := d.ctx.Close()
		if err == nil {
			err = err2
		}
	}
	return err
}
