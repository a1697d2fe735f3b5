// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the HTTP-Accel License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package host

import (
	"bytes"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/cceckman/http-accel/internal/ntcp"
	"github.com/cceckman/http-accel/internal/observability"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeDevice emula o lado device do link: responde com START + corpo + END
// assim que o primeiro frame de dados chega (um cliente HTTP/1.0 só fecha
// depois de ler a resposta) e segue drenando a sessão até o END do host.
func fakeDevice(t *testing.T, link io.ReadWriter, streamID uint8, response string, got *bytes.Buffer) {
	t.Helper()
	responded := false
	respond := func() {
		for _, f := range []*ntcp.Frame{
			ntcp.StartFrame(streamID, true),
			ntcp.DataFrame(streamID, true, []byte(response)),
			ntcp.EndFrame(streamID, true),
		} {
			if err := ntcp.WriteFrame(link, f); err != nil {
				t.Errorf("device write: %v", err)
				return
			}
		}
	}

	for {
		f, err := ntcp.ReadFrame(link)
		if err != nil {
			return
		}
		if f.Stream != streamID || f.ToHost() {
			continue
		}
		got.Write(f.Body)
		if len(f.Body) > 0 && !responded {
			responded = true
			respond()
		}
		if f.End() {
			if !responded {
				respond()
			}
			return
		}
	}
}

func newTestProxy(link io.ReadWriter) *Proxy {
	return NewProxy("127.0.0.1:0", 1, link, nil,
		observability.NewMetrics(), observability.NewEventRing(16), testLogger())
}

func TestProxy_SessionRoundTrip(t *testing.T) {
	linkHost, linkDevice := net.Pipe()
	defer linkHost.Close()
	defer linkDevice.Close()

	request := "GET /count HTTP/1.0\r\n\r\n"
	response := "HTTP/1.0 200 OK\r\n\r\nhello\r\n"

	var deviceGot bytes.Buffer
	deviceDone := make(chan struct{})
	go func() {
		defer close(deviceDone)
		fakeDevice(t, linkDevice, 1, response, &deviceGot)
	}()

	clientA, clientB := net.Pipe()
	defer clientA.Close()

	proxy := newTestProxy(linkHost)
	handleDone := make(chan error, 1)
	go func() {
		handleDone <- proxy.handle(clientB)
	}()

	// Cliente envia a requisição e fecha o lado de escrita via Close
	// depois de ler a resposta (HTTP/1.0: uma requisição por conexão).
	if _, err := clientA.Write([]byte(request)); err != nil {
		t.Fatalf("client write: %v", err)
	}

	buf := make([]byte, len(response))
	if _, err := io.ReadFull(clientA, buf); err != nil {
		t.Fatalf("client read: %v", err)
	}
	if string(buf) != response {
		t.Fatalf("expected response %q, got %q", response, buf)
	}
	clientA.Close()

	select {
	case err := <-handleDone:
		if err != nil {
			t.Fatalf("handle: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handle did not finish")
	}

	select {
	case <-deviceDone:
	case <-time.After(2 * time.Second):
		t.Fatal("fake device did not finish")
	}

	if deviceGot.String() != request {
		t.Fatalf("device should see the raw request, got %q", deviceGot.String())
	}
}

func TestProxy_ForeignFramesDiscarded(t *testing.T) {
	linkHost, linkDevice := net.Pipe()
	defer linkHost.Close()
	defer linkDevice.Close()

	response := "ok"
	deviceDone := make(chan struct{})
	go func() {
		defer close(deviceDone)
		responded := false
		for {
			f, err := ntcp.ReadFrame(linkDevice)
			if err != nil {
				return
			}
			if len(f.Body) > 0 && !responded {
				responded = true
				// Frame de outro stream intercalado: o proxy deve ignorar
				frames := []*ntcp.Frame{
					ntcp.StartFrame(1, true),
					ntcp.DataFrame(9, true, []byte("noise")),
					ntcp.DataFrame(1, true, []byte(response)),
					ntcp.EndFrame(1, true),
				}
				for _, rf := range frames {
					if err := ntcp.WriteFrame(linkDevice, rf); err != nil {
						t.Errorf("device write: %v", err)
						return
					}
				}
			}
			if f.End() {
				return
			}
		}
	}()

	clientA, clientB := net.Pipe()
	defer clientA.Close()

	proxy := newTestProxy(linkHost)
	handleDone := make(chan error, 1)
	go func() {
		handleDone <- proxy.handle(clientB)
	}()

	if _, err := clientA.Write([]byte("GET / HTTP/1.0\r\n\r\n")); err != nil {
		t.Fatalf("client write: %v", err)
	}

	buf := make([]byte, len(response))
	if _, err := io.ReadFull(clientA, buf); err != nil {
		t.Fatalf("client read: %v", err)
	}
	if string(buf) != response {
		t.Fatalf("expected %q, got %q", response, buf)
	}
	clientA.Close()

	select {
	case err := <-handleDone:
		if err != nil {
			t.Fatalf("handle: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handle did not finish")
	}
	<-deviceDone
}

func TestProxy_UplinkChunksLargeBodies(t *testing.T) {
	linkHost, linkDevice := net.Pipe()
	defer linkHost.Close()
	defer linkDevice.Close()

	// Corpo maior que um frame: o uplink deve fatiar em frames ≤ 255
	payload := bytes.Repeat([]byte{'x'}, 1000)

	var deviceGot bytes.Buffer
	deviceDone := make(chan struct{})
	go func() {
		defer close(deviceDone)
		for {
			f, err := ntcp.ReadFrame(linkDevice)
			if err != nil {
				return
			}
			deviceGot.Write(f.Body)
			if f.End() {
				break
			}
		}
		// Resposta mínima para encerrar a sessão
		ntcp.WriteFrame(linkDevice, ntcp.StartFrame(1, true))
		ntcp.WriteFrame(linkDevice, ntcp.EndFrame(1, true))
	}()

	clientA, clientB := net.Pipe()

	proxy := newTestProxy(linkHost)
	handleDone := make(chan error, 1)
	go func() {
		handleDone <- proxy.handle(clientB)
	}()

	go func() {
		clientA.Write(payload)
		clientA.Close()
	}()

	select {
	case err := <-handleDone:
		if err != nil {
			t.Fatalf("handle: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handle did not finish")
	}
	<-deviceDone

	if !bytes.Equal(deviceGot.Bytes(), payload) {
		t.Fatalf("expected %d payload bytes at device, got %d",
			len(payload), deviceGot.Len())
	}
}
