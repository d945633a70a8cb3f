// Package gputest provides a recording gpu.Device for tests.
package gputest

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/richinsley/goshadercam/gpu"
)

// Texture is the fake device's view of a texture object.
type Texture struct {
	Width, Height int32
	Pixels        []byte
	Parameterised bool
	Allocations   int
	Uploads       int
}

// Device records every call it receives. Attribute and uniform lookups are
// answered from the Attribs and Uniforms tables; names missing from a table
// report -1 like a real driver.
type Device struct {
	Calls []string

	Attribs  map[string]int32
	Uniforms map[string]int32

	// CompileLog, when it returns a non-empty string, fails the compile with
	// that log.
	CompileLog func(stage gpu.ShaderStage, source string) string
	// LinkLog, when non-empty, fails every link with that log.
	LinkLog string

	Sources  map[uint32]string
	Textures map[uint32]*Texture
	Matrices map[int32]mgl32.Mat4
	Ints     map[int32]int32

	next    uint32
	stages  map[uint32]gpu.ShaderStage
	live    map[uint32]string
	texture uint32
}

// New returns a device that resolves the given attribute and uniform names to
// consecutive locations starting at zero.
func New(attribs, uniforms []string) *Device {
	d := &Device{
		Attribs:  make(map[string]int32),
		Uniforms: make(map[string]int32),
		Sources:  make(map[uint32]string),
		Textures: make(map[uint32]*Texture),
		Matrices: make(map[int32]mgl32.Mat4),
		Ints:     make(map[int32]int32),
		stages:   make(map[uint32]gpu.ShaderStage),
		live:     make(map[uint32]string),
	}
	for i, name := range attribs {
		d.Attribs[name] = int32(i)
	}
	for i, name := range uniforms {
		d.Uniforms[name] = int32(i)
	}
	return d
}

func (d *Device) record(format string, args ...any) {
	d.Calls = append(d.Calls, fmt.Sprintf(format, args...))
}

func (d *Device) alloc(kind string) uint32 {
	d.next++
	d.live[d.next] = kind
	return d.next
}

func (d *Device) free(kind string, id uint32) {
	if d.live[id] == kind {
		delete(d.live, id)
	}
}

// Count returns how many recorded calls start with prefix.
func (d *Device) Count(prefix string) int {
	n := 0
	for _, c := range d.Calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// Mark returns a position in the call log for use with Since.
func (d *Device) Mark() int { return len(d.Calls) }

// Since returns the calls recorded after mark.
func (d *Device) Since(mark int) []string {
	out := make([]string, len(d.Calls)-mark)
	copy(out, d.Calls[mark:])
	return out
}

// Live returns the number of objects of the given kind ("shader", "program",
// "buffer", "vao", "texture") that were created and not deleted.
func (d *Device) Live(kind string) int {
	n := 0
	for _, k := range d.live {
		if k == kind {
			n++
		}
	}
	return n
}

func (d *Device) CreateShader(stage gpu.ShaderStage) uint32 {
	id := d.alloc("shader")
	d.stages[id] = stage
	d.record("CreateShader(%s)=%d", stage, id)
	return id
}

func (d *Device) CompileShader(shader uint32, source string) (bool, string) {
	d.record("CompileShader(%d)", shader)
	d.Sources[shader] = source
	if d.CompileLog != nil {
		if msg := d.CompileLog(d.stages[shader], source); msg != "" {
			return false, msg
		}
	}
	return true, ""
}

func (d *Device) DeleteShader(shader uint32) {
	d.record("DeleteShader(%d)", shader)
	d.free("shader", shader)
}

func (d *Device) CreateProgram() uint32 {
	id := d.alloc("program")
	d.record("CreateProgram()=%d", id)
	return id
}

func (d *Device) AttachShader(program, shader uint32) {
	d.record("AttachShader(%d, %d)", program, shader)
}

func (d *Device) LinkProgram(program uint32) (bool, string) {
	d.record("LinkProgram(%d)", program)
	if d.LinkLog != "" {
		return false, d.LinkLog
	}
	return true, ""
}

func (d *Device) UseProgram(program uint32) { d.record("UseProgram(%d)", program) }

func (d *Device) DeleteProgram(program uint32) {
	d.record("DeleteProgram(%d)", program)
	d.free("program", program)
}

func (d *Device) GetAttribLocation(program uint32, name string) int32 {
	loc, ok := d.Attribs[name]
	if !ok {
		loc = -1
	}
	d.record("GetAttribLocation(%d, %s)=%d", program, name, loc)
	return loc
}

func (d *Device) GetUniformLocation(program uint32, name string) int32 {
	loc, ok := d.Uniforms[name]
	if !ok {
		loc = -1
	}
	d.record("GetUniformLocation(%d, %s)=%d", program, name, loc)
	return loc
}

func (d *Device) GenVertexArray() uint32 {
	id := d.alloc("vao")
	d.record("GenVertexArray()=%d", id)
	return id
}

func (d *Device) BindVertexArray(vao uint32) { d.record("BindVertexArray(%d)", vao) }

func (d *Device) DeleteVertexArray(vao uint32) {
	d.record("DeleteVertexArray(%d)", vao)
	d.free("vao", vao)
}

func (d *Device) GenBuffer() uint32 {
	id := d.alloc("buffer")
	d.record("GenBuffer()=%d", id)
	return id
}

func (d *Device) BindArrayBuffer(buffer uint32) { d.record("BindArrayBuffer(%d)", buffer) }

func (d *Device) ArrayBufferData(data []float32) {
	d.record("ArrayBufferData(%v)", data)
}

func (d *Device) DeleteBuffer(buffer uint32) {
	d.record("DeleteBuffer(%d)", buffer)
	d.free("buffer", buffer)
}

func (d *Device) EnableVertexAttribArray(index uint32) {
	d.record("EnableVertexAttribArray(%d)", index)
}

func (d *Device) DisableVertexAttribArray(index uint32) {
	d.record("DisableVertexAttribArray(%d)", index)
}

func (d *Device) VertexAttribPointer(index uint32, size int32) {
	d.record("VertexAttribPointer(%d, %d)", index, size)
}

func (d *Device) GenTexture() uint32 {
	id := d.alloc("texture")
	d.Textures[id] = &Texture{}
	d.record("GenTexture()=%d", id)
	return id
}

func (d *Device) ActiveTexture(unit uint32) { d.record("ActiveTexture(%d)", unit) }

func (d *Device) BindTexture(texture uint32) {
	d.texture = texture
	d.record("BindTexture(%d)", texture)
}

func (d *Device) TexParameters() {
	if t := d.Textures[d.texture]; t != nil {
		t.Parameterised = true
	}
	d.record("TexParameters()")
}

func (d *Device) TexImage2D(width, height int32, pixels []byte) {
	if t := d.Textures[d.texture]; t != nil {
		t.Width, t.Height = width, height
		t.Pixels = append([]byte(nil), pixels...)
		t.Allocations++
	}
	d.record("TexImage2D(%d, %d)", width, height)
}

func (d *Device) TexSubImage2D(width, height int32, pixels []byte) {
	if t := d.Textures[d.texture]; t != nil {
		t.Pixels = append(t.Pixels[:0], pixels...)
		t.Uploads++
	}
	d.record("TexSubImage2D(%d, %d)", width, height)
}

func (d *Device) DeleteTexture(texture uint32) {
	d.record("DeleteTexture(%d)", texture)
	d.free("texture", texture)
}

func (d *Device) Uniform1i(location int32, v int32) {
	d.Ints[location] = v
	d.record("Uniform1i(%d, %d)", location, v)
}

func (d *Device) UniformMatrix4fv(location int32, m mgl32.Mat4) {
	d.Matrices[location] = m
	d.record("UniformMatrix4fv(%d)", location)
}

func (d *Device) Viewport(x, y, width, height int32) {
	d.record("Viewport(%d, %d, %d, %d)", x, y, width, height)
}

func (d *Device) ClearColor(r, g, b, a float32) {
	d.record("ClearColor(%g, %g, %g, %g)", r, g, b, a)
}

func (d *Device) Clear(mask gpu.ClearMask) { d.record("Clear(%d)", mask) }

func (d *Device) EnableDepthTest() { d.record("EnableDepthTest()") }

func (d *Device) DrawTriangleStrip(first, count int32) {
	d.record("DrawTriangleStrip(%d, %d)", first, count)
}

var _ gpu.Device = (*Device)(nil)
