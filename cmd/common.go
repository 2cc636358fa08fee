/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/valpere/noveldiff/internal/translator"
)

// buildServices constructs the provider map from CLI parameters, falling
// back to viper-configured values for anything left empty.
func buildServices(serviceNames []string, ollamaBaseURL, openrouterAPIKey string) (map[string]translator.Service, error) {
	if ollamaBaseURL == "" {
		ollamaBaseURL = viper.GetString("ollama_url")
	}
	if openrouterAPIKey == "" {
		openrouterAPIKey = viper.GetString("openrouter_key")
	}

	services := make(map[string]translator.Service)

	for _, name := range serviceNames {
		switch name {
		case "ollama":
			services["ollama"] = translator.NewOllamaService(ollamaBaseURL, "")
		case "openrouter":
			services["openrouter"] = translator.NewOpenRouterService(openrouterAPIKey, "", "")
		default:
			fmt.Fprintf(os.Stderr, "Unknown service: %s, skipping\n", name)
		}
	}

	if len(services) == 0 {
		return nil, fmt.Errorf("no valid services configured")
	}
	return services, nil
}

// dbPathOrDefault resolves the database path from the flag, then the
// config, then the built-in default.
func dbPathOrDefault(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := viper.GetString("db"); v != "" {
		return v
	}
	return "./data/noveldiff.db"
}
