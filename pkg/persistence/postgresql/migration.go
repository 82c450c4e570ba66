package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE scenarios (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				owner_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('active', 'inactive')),
				schedule VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_scenarios_owner_id ON scenarios(owner_id);
			CREATE INDEX idx_scenarios_status ON scenarios(status);

			CREATE TABLE scenario_nodes (
				scenario_id VARCHAR(255) NOT NULL REFERENCES scenarios(id) ON DELETE CASCADE,
				id VARCHAR(255) NOT NULL,
				integration_node_id VARCHAR(255) NOT NULL,
				label VARCHAR(255) NOT NULL,
				connection_id VARCHAR(255),
				config JSONB NOT NULL DEFAULT '{}',
				input_mapping JSONB,
				output_schema TEXT,
				sample_data JSONB,
				is_system BOOLEAN NOT NULL DEFAULT false,
				locked_properties JSONB,
				node_order INT NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				PRIMARY KEY (scenario_id, id)
			);

			CREATE INDEX idx_scenario_nodes_integration_node_id ON scenario_nodes(integration_node_id);

			CREATE TABLE scenario_edges (
				scenario_id VARCHAR(255) NOT NULL REFERENCES scenarios(id) ON DELETE CASCADE,
				id VARCHAR(255) NOT NULL,
				source_node_id VARCHAR(255) NOT NULL,
				target_node_id VARCHAR(255) NOT NULL,
				mapping JSONB,
				label VARCHAR(255),
				branch VARCHAR(255),
				edge_order INT NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				PRIMARY KEY (scenario_id, id)
			);

			CREATE INDEX idx_scenario_edges_source ON scenario_edges(scenario_id, source_node_id);
			CREATE INDEX idx_scenario_edges_target ON scenario_edges(scenario_id, target_node_id);

			CREATE TABLE connections (
				id VARCHAR(255) PRIMARY KEY,
				app_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				owner_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('connected', 'error', 'disconnected')),
				ciphertext BYTEA,
				masked_credentials JSONB,
				credentials JSONB,
				expires_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_connections_owner_id ON connections(owner_id);
		`,
		2: `
			CREATE TABLE automation_logs (
				seq BIGSERIAL UNIQUE,
				id VARCHAR(255) PRIMARY KEY,
				scenario_id VARCHAR(255) NOT NULL,
				run_id VARCHAR(255) NOT NULL,
				node_id VARCHAR(255),
				action VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('running', 'success', 'error', 'skipped', 'cancelled')),
				start_time TIMESTAMP WITH TIME ZONE NOT NULL,
				end_time TIMESTAMP WITH TIME ZONE,
				duration_ms BIGINT,
				input_data JSONB,
				output_data JSONB,
				error_message TEXT,
				request_info JSONB,
				response_info JSONB,
				user_id VARCHAR(255),
				timestamp TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_automation_logs_run_id ON automation_logs(run_id, seq);
			CREATE INDEX idx_automation_logs_scenario_id ON automation_logs(scenario_id, timestamp);
			CREATE INDEX idx_automation_logs_status ON automation_logs(status);
		`,
	}
}
