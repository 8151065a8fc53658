package core

import (
	"errors"
	"sync"

	"iohwab/protocol"
)

var (
	ErrUnknownCommand = errors.New("unknown command ID")
	ErrNoResponder    = errors.New("no response writer configured")
)

// CommandHandler is a function that handles a command with raw frame data
// The handler is responsible for decoding its own arguments from the data pointer
type CommandHandler func(data *[]byte) error

// Command represents a registered command or response message
type Command struct {
	ID      uint16
	Name    string
	Format  string // Format string for dictionary (e.g., "oid=%c")
	Handler CommandHandler
}

// CommandRegistry holds all registered commands
type CommandRegistry struct {
	mu         sync.RWMutex
	commands   map[uint16]*Command
	nameToID   map[string]uint16
	nextID     uint16
	dictionary string
}

var globalRegistry = NewCommandRegistry()

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[uint16]*Command),
		nameToID: make(map[string]uint16),
	}
}

// RegisterCommand registers a command handler on the global registry
func RegisterCommand(name string, format string, handler CommandHandler) uint16 {
	return globalRegistry.Register(name, format, handler)
}

// RegisterResponse registers a response message (MCU -> Host)
func RegisterResponse(name string, format string) uint16 {
	return globalRegistry.Register(name, format, nil)
}

// Register adds a command to the registry. Registering a name twice
// returns the existing ID.
func (r *CommandRegistry) Register(name string, format string, handler CommandHandler) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.nameToID[name]; exists {
		return id
	}

	id := r.nextID
	r.nextID++
	r.commands[id] = &Command{
		ID:      id,
		Name:    name,
		Format:  format,
		Handler: handler,
	}
	r.nameToID[name] = id
	r.rebuildDictionary()
	return id
}

// GetCommand retrieves a command by ID
func (r *CommandRegistry) GetCommand(id uint16) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[id]
	return cmd, ok
}

// GetCommandByName retrieves a command by name
func (r *CommandRegistry) GetCommandByName(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.nameToID[name]
	if !ok {
		return nil, false
	}
	return r.commands[id], true
}

// Dispatch calls the handler of cmdID. Response IDs have no handler and
// are ignored.
func (r *CommandRegistry) Dispatch(cmdID uint16, data *[]byte) error {
	cmd, ok := r.GetCommand(cmdID)
	if !ok {
		return ErrUnknownCommand
	}
	if cmd.Handler == nil {
		return nil
	}
	return cmd.Handler(data)
}

// DispatchPayload runs every command contained in a frame payload
func (r *CommandRegistry) DispatchPayload(payload []byte) error {
	for len(payload) > 0 {
		cmdID, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			return err
		}
		if err := r.Dispatch(uint16(cmdID), &payload); err != nil {
			return err
		}
	}
	return nil
}

// GetDictionary returns the dictionary text: one "id name format" line per entry
func (r *CommandRegistry) GetDictionary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dictionary
}

// rebuildDictionary must be called with lock held
func (r *CommandRegistry) rebuildDictionary() {
	dict := ""
	for i := uint16(0); i < r.nextID; i++ {
		cmd, ok := r.commands[i]
		if !ok {
			continue
		}
		dict += utoa(uint32(cmd.ID)) + " " + cmd.Name
		if cmd.Format != "" {
			dict += " " + cmd.Format
		}
		dict += "\n"
	}
	r.dictionary = dict
}

// GetGlobalRegistry returns the global command registry
func GetGlobalRegistry() *CommandRegistry {
	return globalRegistry
}

// ResponseWriter sends one encoded response payload to the host
type ResponseWriter func(payload []byte) error

var responseWriter ResponseWriter

// SetResponseWriter installs the transport used by SendResponse
func SetResponseWriter(w ResponseWriter) {
	responseWriter = w
}

// SendResponse encodes the response named name with encode and hands it
// to the response writer
func SendResponse(name string, encode func(output protocol.OutputBuffer)) error {
	if responseWriter == nil {
		return ErrNoResponder
	}
	cmd, ok := globalRegistry.GetCommandByName(name)
	if !ok {
		return ErrUnknownCommand
	}

	var out protocol.ScratchOutput
	protocol.EncodeVLQUint(&out, uint32(cmd.ID))
	encode(&out)
	return responseWriter(out.Result())
}
