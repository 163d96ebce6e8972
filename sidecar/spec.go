package sidecar

// ProcessSpec describes how to launch a sidecar subprocess.
type ProcessSpec struct {
	Command string
	Args    []string
	Cwd     string
	Env     map[string]string
}

// NewProcessSpec returns a ProcessSpec for command with no arguments, cwd,
// or extra environment.
func NewProcessSpec(command string) ProcessSpec {
	return ProcessSpec{Command: command}
}

// WithArgs returns a copy of s with args appended.
func (s ProcessSpec) WithArgs(args ...string) ProcessSpec {
	s.Args = append(append([]string{}, s.Args...), args...)
	return s
}

// WithCwd returns a copy of s with its working directory set.
func (s ProcessSpec) WithCwd(cwd string) ProcessSpec {
	s.Cwd = cwd
	return s
}

// WithEnv returns a copy of s with key=value added to its extra environment.
func (s ProcessSpec) WithEnv(key, value string) ProcessSpec {
	env := make(map[string]string, len(s.Env)+1)
	for k, v := range s.Env {
		env[k] = v
	}
	env[key] = value
	s.Env = env
	return s
}
