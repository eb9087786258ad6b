package buildconfig

// View is the printable form of a resolved config. Plugins are shown by name.
type View struct {
	Plugins []string   `yaml:"plugins" json:"plugins"`
	Server  ServerView `yaml:"server" json:"server"`
	Build   BuildView  `yaml:"build" json:"build"`
}

type ServerView struct {
	Host        string   `yaml:"host" json:"host"`
	Port        int      `yaml:"port" json:"port"`
	CORSOrigins []string `yaml:"cors,omitempty" json:"cors,omitempty"`
}

type BuildView struct {
	OutDir        string            `yaml:"outDir" json:"outDir"`
	Minify        bool              `yaml:"minify" json:"minify"`
	SourceMap     bool              `yaml:"sourcemap" json:"sourcemap"`
	Compress      bool              `yaml:"compress" json:"compress"`
	RollupOptions RollupOptionsView `yaml:"rollupOptions" json:"rollupOptions"`
}

type RollupOptionsView struct {
	Input map[string]string `yaml:"input" json:"input"`
}

func (c BuildConfig) View() View {
	names := make([]string, 0, len(c.Plugins))
	for _, p := range c.Plugins {
		names = append(names, p.Name())
	}

	return View{
		Plugins: names,
		Server: ServerView{
			Host:        c.Server.Host,
			Port:        c.Server.Port,
			CORSOrigins: c.Server.CORSOrigins,
		},
		Build: BuildView{
			OutDir:    c.Build.OutDir,
			Minify:    c.Build.Minify,
			SourceMap: c.Build.SourceMap,
			Compress:  c.Build.Compress,
			RollupOptions: RollupOptionsView{
				Input: c.Build.RollupOptions.Input,
			},
		},
	}
}
